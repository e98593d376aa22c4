// handlers/file_gcs.go
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"cloud.google.com/go/storage"
)

var (
	gcsClient     *storage.Client
	gcsClientOnce sync.Once
	gcsClientErr  error
)

func getGCSClient(ctx context.Context) (*storage.Client, error) {
	gcsClientOnce.Do(func() {
		gcsClient, gcsClientErr = storage.NewClient(ctx)
	})
	return gcsClient, gcsClientErr
}

// UploadMediaGCS streams an uploaded file into the configured bucket.
func UploadMediaGCS(w http.ResponseWriter, r *http.Request) {
	bucketName := os.Getenv("GCS_BUCKET")
	if bucketName == "" {
		http.Error(w, "GCS_BUCKET not configured", http.StatusInternalServerError)
		return
	}

	if err := r.ParseMultipartForm(50 << 20); err != nil {
		http.Error(w, "bad multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	client, err := getGCSClient(ctx)
	if err != nil {
		http.Error(w, "storage client: "+err.Error(), http.StatusInternalServerError)
		return
	}

	objectName := fmt.Sprintf("%s-%s", time.Now().Format("20060102-150405"), header.Filename)
	obj := client.Bucket(bucketName).Object(objectName)

	wc := obj.NewWriter(ctx)
	wc.ContentType = header.Header.Get("Content-Type")
	size, err := io.Copy(wc, file)
	if err != nil {
		wc.Close()
		http.Error(w, "failed to upload: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if err := wc.Close(); err != nil {
		http.Error(w, "failed to finalize upload: "+err.Error(), http.StatusInternalServerError)
		return
	}

	media, err := storeMedia(r, header.Filename, objectName, size)
	if err != nil {
		http.Error(w, "failed to record media: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"media": media,
		"url":   media.URL(),
	})
}
