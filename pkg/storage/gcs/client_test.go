package gcs

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

type roundTripFunc func(*http.Request) *http.Response

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req), nil
}

func staticTokenSource(token string) *tokenSource {
	return &tokenSource{fetch: func(context.Context) (string, time.Time, error) {
		return token, time.Now().Add(time.Hour), nil
	}}
}

func TestUploadObjectSuccess(t *testing.T) {
	t.Parallel()

	var gotBody string
	client := &Client{
		defaultBucket: "bucket",
		tokenSource:   staticTokenSource("token"),
		httpClient: &http.Client{Transport: roundTripFunc(func(req *http.Request) *http.Response {
			if req.Method != http.MethodPost {
				t.Fatalf("expected POST, got %s", req.Method)
			}
			if req.Header.Get("Authorization") != "Bearer token" {
				t.Fatalf("unexpected auth %s", req.Header.Get("Authorization"))
			}
			if req.Header.Get("Content-Type") != "image/png" {
				t.Fatalf("unexpected content type %s", req.Header.Get("Content-Type"))
			}
			if !strings.Contains(req.URL.String(), "uploadType=media") {
				t.Fatalf("expected media upload url, got %s", req.URL)
			}
			b, _ := io.ReadAll(req.Body)
			gotBody = string(b)
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader(`{"name":"items/file.png"}`)),
				Header:     http.Header{},
			}
		})},
	}

	publicURL, err := client.UploadObject(context.Background(), "", "items/file.png", "image/png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("UploadObject: %v", err)
	}
	if gotBody != "png-bytes" {
		t.Fatalf("payload not forwarded, got %q", gotBody)
	}
	if publicURL != "https://storage.googleapis.com/bucket/items/file.png" {
		t.Fatalf("unexpected public url %s", publicURL)
	}
}

func TestUploadObjectAccessMode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		mode      string
		publicACL bool
	}{
		{"default is public", "", true},
		{"explicit public", "public", true},
		{"private leaves bucket defaults", "private", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var gotURL string
			client := &Client{
				defaultBucket: "bucket",
				accessMode:    tc.mode,
				tokenSource:   staticTokenSource("token"),
				httpClient: &http.Client{Transport: roundTripFunc(func(req *http.Request) *http.Response {
					gotURL = req.URL.String()
					return &http.Response{
						StatusCode: http.StatusOK,
						Body:       io.NopCloser(strings.NewReader(`{}`)),
						Header:     http.Header{},
					}
				})},
			}

			if _, err := client.UploadObject(context.Background(), "", "items/file.png", "image/png", strings.NewReader("x")); err != nil {
				t.Fatalf("UploadObject: %v", err)
			}
			if got := strings.Contains(gotURL, "predefinedAcl=publicRead"); got != tc.publicACL {
				t.Fatalf("mode %q: predefinedAcl present=%v, url %s", tc.mode, got, gotURL)
			}
		})
	}
}

func TestUploadObjectRejectsMissingInputs(t *testing.T) {
	t.Parallel()

	client := &Client{
		defaultBucket: "bucket",
		tokenSource:   staticTokenSource("token"),
		httpClient:    &http.Client{},
	}

	if _, err := client.UploadObject(context.Background(), "", "", "image/png", strings.NewReader("x")); err == nil {
		t.Fatal("expected error for missing object name")
	}
	if _, err := client.UploadObject(context.Background(), "", "items/file.png", "", strings.NewReader("x")); err == nil {
		t.Fatal("expected error for missing content type")
	}
}

func TestDeleteObjectSuccess(t *testing.T) {
	t.Parallel()

	client := &Client{
		defaultBucket: "bucket",
		tokenSource:   staticTokenSource("token"),
		httpClient: &http.Client{Transport: roundTripFunc(func(req *http.Request) *http.Response {
			if req.Method != http.MethodDelete {
				t.Fatalf("expected DELETE, got %s", req.Method)
			}
			if req.Header.Get("Authorization") != "Bearer token" {
				t.Fatalf("unexpected auth %s", req.Header.Get("Authorization"))
			}
			return &http.Response{
				StatusCode: http.StatusNoContent,
				Body:       io.NopCloser(strings.NewReader("")),
				Header:     http.Header{},
			}
		})},
	}

	if err := client.DeleteObject(context.Background(), "bucket", "items/file.png"); err != nil {
		t.Fatalf("DeleteObject: %v", err)
	}
}

func TestDeleteObjectNotFound(t *testing.T) {
	t.Parallel()

	client := &Client{
		defaultBucket: "bucket",
		tokenSource:   staticTokenSource("token"),
		httpClient: &http.Client{Transport: roundTripFunc(func(req *http.Request) *http.Response {
			return &http.Response{
				StatusCode: http.StatusNotFound,
				Body:       io.NopCloser(strings.NewReader("")),
				Header:     http.Header{},
			}
		})},
	}

	if err := client.DeleteObject(context.Background(), "bucket", "items/file.png"); err != nil {
		t.Fatalf("DeleteObject not found should succeed: %v", err)
	}
}

func TestObjectURLEscapesPathSegments(t *testing.T) {
	t.Parallel()

	got := ObjectURL("bucket", "items/fresh basil.png")
	if got != "https://storage.googleapis.com/bucket/items/fresh%20basil.png" {
		t.Fatalf("unexpected url %s", got)
	}
}
