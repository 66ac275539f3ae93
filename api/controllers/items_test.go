package controllers

import (
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	pkgerrors "github.com/freshcart/freshcart-backend/pkg/errors"
)

func TestItemFiltersFromQuery(t *testing.T) {
	categoryID := uuid.New()

	req := httptest.NewRequest("GET", "/api/items?category_id="+categoryID.String()+"&search=milk&is_available=true", nil)
	filters, err := itemFiltersFromQuery(req)
	if err != nil {
		t.Fatalf("parse filters: %v", err)
	}
	if filters.CategoryID == nil || *filters.CategoryID != categoryID {
		t.Fatalf("unexpected category filter: %v", filters.CategoryID)
	}
	if filters.Query != "milk" {
		t.Fatalf("unexpected search query %q", filters.Query)
	}
	if !filters.AvailableOnly {
		t.Fatal("expected available filter to be set")
	}
}

func TestItemFiltersRejectBadInput(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/items?category_id=not-a-uuid", nil)
	if _, err := itemFiltersFromQuery(req); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	req = httptest.NewRequest("GET", "/api/items?is_available=sometimes", nil)
	if _, err := itemFiltersFromQuery(req); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPageFromQuery(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/items?page=3&limit=20", nil)
	page, err := pageFromQuery(req)
	if err != nil {
		t.Fatalf("parse page: %v", err)
	}
	if page.Limit != 20 || page.Offset != 40 {
		t.Fatalf("unexpected window %+v", page)
	}

	req = httptest.NewRequest("GET", "/api/items?page=0", nil)
	if _, err := pageFromQuery(req); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
