package api

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/TushxrTxndon/CampusBazaar/internal/imaging"
	"github.com/TushxrTxndon/CampusBazaar/internal/services"
	"github.com/gorilla/mux"
)

// maxFormBytes bounds a listing form. Raw images may exceed MaxUploadBytes until downscaled.
const maxFormBytes = 4 * imaging.MaxUploadBytes

// ListListingsHandler handles GET /api/v1/listings
func (a *App) ListListingsHandler(w http.ResponseWriter, r *http.Request) {
	listings, err := a.svc.Listings.Mine(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listings)
}

// AddListingHandler handles POST /api/v1/listings, either as JSON or as a
// multipart form whose "images" files are attached to a new product.
func (a *App) AddListingHandler(w http.ResponseWriter, r *http.Request) {
	var (
		listing services.NewListing
		images  []services.ImageFile
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
		if err := r.ParseMultipartForm(maxFormBytes); err != nil {
			writeDetail(w, http.StatusBadRequest, "Invalid form")
			return
		}
		var err error
		if listing, err = listingFromForm(r.MultipartForm); err != nil {
			writeDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		if images, err = readImages(r.MultipartForm.File["images"]); err != nil {
			writeDetail(w, http.StatusBadRequest, "Invalid image upload")
			return
		}
	} else if !decodeJSON(w, r, &listing) {
		return
	}

	pid, err := a.svc.Listings.Add(detach(r), listing, images)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"PID": pid, "message": "Listing added"})
}

// UpdateListingHandler handles PUT /api/v1/listings
func (a *App) UpdateListingHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PID   string `json:"PID"`
		Stock int    `json:"Stock"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.PID == "" {
		writeDetail(w, http.StatusBadRequest, "PID is required")
		return
	}

	if err := a.svc.Listings.UpdateStock(r.Context(), req.PID, req.Stock); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Listing updated"})
}

// RemoveListingHandler handles DELETE /api/v1/listings/{pid}
func (a *App) RemoveListingHandler(w http.ResponseWriter, r *http.Request) {
	resp, err := a.svc.Listings.Remove(r.Context(), mux.Vars(r)["pid"])
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// AddImageHandler handles POST /api/v1/listings/{pid}/images with a multipart "file"
func (a *App) AddImageHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseMultipartForm(maxFormBytes); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid form")
		return
	}
	files, err := readImages(r.MultipartForm.File["file"])
	if err != nil || len(files) != 1 {
		writeDetail(w, http.StatusBadRequest, "Exactly one file is required")
		return
	}

	image, err := a.svc.Listings.AddImage(detach(r), mux.Vars(r)["pid"], files[0])
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, image)
}

// ReorderImagesHandler handles PUT /api/v1/listings/{pid}/images/order
func (a *App) ReorderImagesHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ImageIDs []int `json:"image_ids"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := a.svc.Listings.ReorderImages(r.Context(), mux.Vars(r)["pid"], req.ImageIDs); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Images reordered"})
}

// DeleteImageHandler handles DELETE /api/v1/images/{id}
func (a *App) DeleteImageHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid image ID")
		return
	}

	if err := a.svc.Listings.DeleteImage(r.Context(), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func listingFromForm(form *multipart.Form) (services.NewListing, error) {
	get := func(key string) string {
		if v := form.Value[key]; len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return ""
	}

	l := services.NewListing{
		PID:         get("PID"),
		ProductName: get("ProductName"),
		Description: get("Description"),
	}
	var err error
	if v := get("Price"); v != "" {
		if l.Price, err = strconv.ParseFloat(v, 64); err != nil {
			return l, inputError("Invalid Price")
		}
	}
	if l.Stock, err = strconv.Atoi(get("Stock")); err != nil {
		return l, inputError("Invalid Stock")
	}
	if v := get("CategoryID"); v != "" {
		if l.CategoryID, err = strconv.Atoi(v); err != nil {
			return l, inputError("Invalid CategoryID")
		}
	}
	return l, nil
}

func readImages(headers []*multipart.FileHeader) ([]services.ImageFile, error) {
	images := make([]services.ImageFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		images = append(images, services.ImageFile{Name: fh.Filename, Data: data})
	}
	return images, nil
}
