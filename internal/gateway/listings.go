package gateway

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"

	"github.com/TushxrTxndon/CampusBazaar/internal/models"
)

// AddListing offers stock of a product for a seller
func (c *Client) AddListing(ctx context.Context, req models.ListingRequest) error {
	return c.do(ctx, call{
		method: http.MethodPost,
		route:  "/lists/add",
		path:   "/lists/add",
		body:   req,
	}, nil)
}

// UpdateListing changes a seller's stock
func (c *Client) UpdateListing(ctx context.Context, req models.ListingRequest) error {
	return c.do(ctx, call{
		method: http.MethodPut,
		route:  "/lists/update",
		path:   "/lists/update",
		body:   req,
	}, nil)
}

// UserListings lists what a seller offers
func (c *Client) UserListings(ctx context.Context, email string) ([]models.Listing, error) {
	var listings []models.Listing
	err := c.do(ctx, call{
		method: http.MethodGet,
		route:  "/lists/user/{email_id}",
		path:   "/lists/user/" + url.PathEscape(email),
	}, &listings)
	if err != nil {
		return nil, err
	}
	return listings, nil
}

// ProductSellers lists the sellers of a product
func (c *Client) ProductSellers(ctx context.Context, pid string) ([]models.Seller, error) {
	var sellers []models.Seller
	err := c.do(ctx, call{
		method: http.MethodGet,
		route:  "/lists/product/{pid}",
		path:   "/lists/product/" + url.PathEscape(pid),
	}, &sellers)
	if err != nil {
		return nil, err
	}
	return sellers, nil
}

// RemoveListing withdraws a seller's stock; the backend may delete the product too
func (c *Client) RemoveListing(ctx context.Context, email, pid string) (*models.RemoveListingResponse, error) {
	var resp models.RemoveListingResponse
	err := c.do(ctx, call{
		method: http.MethodDelete,
		route:  "/lists/remove",
		path:   "/lists/remove",
		query:  url.Values{"email_id": {email}, "pid": {pid}},
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// UploadProductImage stores an image file and returns its path
func (c *Client) UploadProductImage(ctx context.Context, filename, contentType string, data []byte) (*models.ImageUploadResponse, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("creating upload part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("writing upload part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing upload body: %w", err)
	}

	var resp models.ImageUploadResponse
	err = c.do(ctx, call{
		method:      http.MethodPost,
		route:       "/product-images/upload",
		path:        "/product-images/upload",
		rawBody:     &buf,
		contentType: w.FormDataContentType(),
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddProductImage attaches an uploaded image to a product
func (c *Client) AddProductImage(ctx context.Context, req models.NewImageRequest) (*models.NewImageResponse, error) {
	var resp models.NewImageResponse
	err := c.do(ctx, call{
		method: http.MethodPost,
		route:  "/product-images/add",
		path:   "/product-images/add",
		body:   req,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ProductImages lists the images of a product in display order
func (c *Client) ProductImages(ctx context.Context, pid string) ([]models.ProductImage, error) {
	var images []models.ProductImage
	err := c.do(ctx, call{
		method: http.MethodGet,
		route:  "/product-images/product/{pid}",
		path:   "/product-images/product/" + url.PathEscape(pid),
	}, &images)
	if err != nil {
		return nil, err
	}
	return images, nil
}

// DeleteProductImage removes an image
func (c *Client) DeleteProductImage(ctx context.Context, imageID int) error {
	return c.do(ctx, call{
		method: http.MethodDelete,
		route:  "/product-images/{image_id}",
		path:   "/product-images/" + strconv.Itoa(imageID),
	}, nil)
}

// ReorderProductImages sets the display order of a product's images
func (c *Client) ReorderProductImages(ctx context.Context, pid string, order []models.ImageOrder) error {
	return c.do(ctx, call{
		method: http.MethodPut,
		route:  "/product-images/reorder",
		path:   "/product-images/reorder",
		query:  url.Values{"pid": {pid}},
		body:   order,
	}, nil)
}
