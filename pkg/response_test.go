package pkg

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteResponseHelpers(t *testing.T) {
	testCases := []struct {
		name            string
		write           func(w http.ResponseWriter)
		wantStatus      int
		wantContentType string
		wantBody        string
	}{
		{
			name: "bytes with status",
			write: func(w http.ResponseWriter) {
				WriteResponseBytes(w, ContentType.JSON, []byte(`{"id":1}`), http.StatusCreated)
			},
			wantStatus:      http.StatusCreated,
			wantContentType: ContentType.JSON,
			wantBody:        `{"id":1}`,
		},
		{
			name: "bytes ok",
			write: func(w http.ResponseWriter) {
				WriteResponseBytesOK(w, ContentType.CSV, []byte("week,quantity\n"))
			},
			wantStatus:      http.StatusOK,
			wantContentType: ContentType.CSV,
			wantBody:        "week,quantity\n",
		},
		{
			name: "string with status",
			write: func(w http.ResponseWriter) {
				WriteResponse(w, ContentType.Text, "accepted", http.StatusAccepted)
			},
			wantStatus:      http.StatusAccepted,
			wantContentType: ContentType.Text,
			wantBody:        "accepted",
		},
		{
			name: "text ok",
			write: func(w http.ResponseWriter) {
				WriteTextResponseOK(w, "Great week!")
			},
			wantStatus:      http.StatusOK,
			wantContentType: ContentType.Text,
			wantBody:        "Great week!",
		},
		{
			name: "json ok",
			write: func(w http.ResponseWriter) {
				WriteJSONResponseOK(w, `[]`)
			},
			wantStatus:      http.StatusOK,
			wantContentType: ContentType.JSON,
			wantBody:        `[]`,
		},
		{
			name: "no content type",
			write: func(w http.ResponseWriter) {
				WriteResponse(w, "", "plain", http.StatusOK)
			},
			wantStatus: http.StatusOK,
			wantBody:   "plain",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			tc.write(rr)

			assert.Equal(t, tc.wantStatus, rr.Code)
			assert.Equal(t, tc.wantBody, rr.Body.String())
			if tc.wantContentType != "" {
				assert.Equal(t, tc.wantContentType, rr.Header().Get("Content-Type"))
			}
		})
	}
}
