package compare

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"reconciler/core/storage/mocks"

	"github.com/gofiber/fiber/v2"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type upload struct {
	field, name, contentType, body string
}

func setupTestApp(t *testing.T) (*fiber.App, *Service, *mocks.Client) {
	mockClient := new(mocks.Client)
	svc := newTestService(t, mockClient, Options{ReportPrefix: "reports/"})
	app := fiber.New()
	NewHandler(svc).RegisterRoutes(app)
	return app, svc, mockClient
}

func multipartRequest(t *testing.T, target string, files []upload, fields map[string][]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.name+`"`)
		h.Set("Content-Type", f.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.body))
		require.NoError(t, err)
	}
	for k, values := range fields {
		for _, v := range values {
			require.NoError(t, w.WriteField(k, v))
		}
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", target, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHandleValidate(t *testing.T) {
	app, _, _ := setupTestApp(t)

	tests := []struct {
		name   string
		file   upload
		status int
		kind   string
	}{
		{
			name:   "csv accepted",
			file:   upload{"file", "a.csv", "text/csv", leftCSV},
			status: fiber.StatusOK,
		},
		{
			name:   "media type parameters ignored",
			file:   upload{"file", "a.csv", "text/csv; charset=utf-8", leftCSV},
			status: fiber.StatusOK,
		},
		{
			name:   "pdf rejected",
			file:   upload{"file", "a.pdf", "application/pdf", "%PDF"},
			status: fiber.StatusBadRequest,
			kind:   "ValidationError",
		},
		{
			name:   "wrong field",
			file:   upload{"other", "a.csv", "text/csv", leftCSV},
			status: fiber.StatusBadRequest,
			kind:   "ValidationError",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(multipartRequest(t, "/files/validate", []upload{tt.file}, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			var body map[string]any
			decodeBody(t, resp, &body)
			if tt.kind != "" {
				assert.Equal(t, tt.kind, body["kind"])
				assert.NotEmpty(t, body["error"])
			} else {
				assert.Equal(t, true, body["valid"])
			}
		})
	}
}

func TestHandleHeaders(t *testing.T) {
	app, _, _ := setupTestApp(t)

	resp, err := app.Test(multipartRequest(t, "/files/headers", []upload{{"file", "a.csv", "text/csv", "id;amount\n1;2\n"}}, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Headers []string `json:"headers"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, []string{"id", "amount"}, body.Headers)
}

func TestHandleHeaders_DecodeError(t *testing.T) {
	app, _, _ := setupTestApp(t)

	// A zip container that is not a workbook.
	resp, err := app.Test(multipartRequest(t, "/files/headers",
		[]upload{{"file", "a.xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "PK\x03\x04garbage"}}, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "DecodeError", body["kind"])
}

func TestHandlePreview(t *testing.T) {
	app, _, _ := setupTestApp(t)

	resp, err := app.Test(multipartRequest(t, "/files/preview?rows=2", []upload{{"file", "a.csv", "text/csv", leftCSV}}, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Rows [][]string `json:"rows"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, [][]string{{"id", "amt"}, {"1", "100"}}, body.Rows)
}

func TestHandleCompare(t *testing.T) {
	app, _, _ := setupTestApp(t)

	req := multipartRequest(t, "/compare", []upload{
		{"left", "a.csv", "text/csv", leftCSV},
		{"right", "b.csv", "text/csv", rightCSV},
	}, map[string][]string{
		"key":                 {"id"},
		"compare":             {"amt"},
		"batch_size":          {"1"},
		"left_last_modified":  {"1700000000000"},
		"right_last_modified": {"1700000000001"},
	})

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	var started Run
	decodeBody(t, resp, &started)
	require.NotEmpty(t, started.ID)

	var page RunPage
	require.Eventually(t, func() bool {
		resp, err := app.Test(httptest.NewRequest("GET", "/compare/runs/"+started.ID+"?limit=2", nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		page = RunPage{}
		decodeBody(t, resp, &page)
		return page.Finished()
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, RunDone, page.State)
	assert.Equal(t, 3, page.Summary.Total)
	assert.Len(t, page.Differences, 2)
	assert.Equal(t, 2, page.Limit)

	resp, err = app.Test(httptest.NewRequest("GET", "/compare/runs/"+started.ID+"/report", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), started.ID+".xlsx")
}

func TestHandleCompare_Rejected(t *testing.T) {
	app, _, _ := setupTestApp(t)

	req := multipartRequest(t, "/compare", []upload{
		{"left", "a.csv", "text/csv", leftCSV},
		{"right", "b.csv", "text/csv", rightCSV},
	}, map[string][]string{"compare": {"amt"}})

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "SelectionError", body["kind"])
}

func TestHandleRunStatus_NotFound(t *testing.T) {
	app, _, _ := setupTestApp(t)

	for _, method := range []string{"GET", "DELETE"} {
		resp, err := app.Test(httptest.NewRequest(method, "/compare/runs/unknown", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode, method)
	}
}

func statObject(client *mocks.Client, key, body string) {
	client.On("StatObject", mock.Anything, "test-bucket", key, mock.Anything).
		Return(minio.ObjectInfo{Key: key, Size: int64(len(body)), LastModified: time.Unix(1700000000, 0)}, nil)
	// Each read needs its own reader.
	for i := 0; i < 2; i++ {
		client.On("GetObject", mock.Anything, "test-bucket", key, mock.Anything).
			Return(io.NopCloser(strings.NewReader(body)), nil).Once()
	}
}

func TestHandleCompareObjects(t *testing.T) {
	app, svc, client := setupTestApp(t)
	statObject(client, "a.csv", leftCSV)
	statObject(client, "b.csv", rightCSV)

	resp, err := app.Test(jsonRequest(t, "POST", "/compare/objects", map[string]any{
		"left": "a.csv", "right": "b.csv", "key": "id", "compare": []string{"amt"},
	}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	var started Run
	decodeBody(t, resp, &started)
	assert.Equal(t, RunDone, waitFinished(t, svc, started.ID).State)

	client.On("PutObject", mock.Anything, "test-bucket", "reports/"+started.ID+".xlsx", mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, nil)

	resp, err = app.Test(httptest.NewRequest("POST", "/compare/runs/"+started.ID+"/export", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestHandleCompareBatch(t *testing.T) {
	app, _, client := setupTestApp(t)
	statObject(client, "a.csv", leftCSV)
	statObject(client, "b.csv", rightCSV)

	resp, err := app.Test(jsonRequest(t, "POST", "/compare/batch", map[string]any{
		"pairs":   []map[string]string{{"left": "a.csv", "right": "b.csv"}, {"left": "b.csv", "right": "a.csv"}},
		"key":     "id",
		"compare": []string{"amt"},
	}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var results []BatchResult
	decodeBody(t, resp, &results)
	require.Len(t, results, 2)
	assert.Equal(t, 3, results[0].Summary.Total)
	assert.Equal(t, "b.csv", results[1].Left)
}

func TestHandleCompareBatch_Empty(t *testing.T) {
	app, _, _ := setupTestApp(t)

	resp, err := app.Test(jsonRequest(t, "POST", "/compare/batch", map[string]any{"key": "id"}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandleListObjects(t *testing.T) {
	app, _, client := setupTestApp(t)

	ch := make(chan minio.ObjectInfo, 1)
	ch <- minio.ObjectInfo{Key: "a.csv", Size: 10}
	close(ch)
	client.On("ListObjects", mock.Anything, "test-bucket", mock.Anything).Return((<-chan minio.ObjectInfo)(ch))

	resp, err := app.Test(httptest.NewRequest("GET", "/files/objects", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var objects []ObjectInfo
	decodeBody(t, resp, &objects)
	require.Len(t, objects, 1)
	assert.Equal(t, "a.csv", objects[0].Key)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, fiber.StatusBadRequest, statusFor("ValidationError"))
	assert.Equal(t, fiber.StatusBadRequest, statusFor("SelectionError"))
	assert.Equal(t, fiber.StatusUnprocessableEntity, statusFor("DecodeError"))
	assert.Equal(t, fiber.StatusGatewayTimeout, statusFor("TimeoutError"))
	assert.Equal(t, fiber.StatusInternalServerError, statusFor("RuntimeError"))
}
