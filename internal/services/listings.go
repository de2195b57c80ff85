package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/TushxrTxndon/CampusBazaar/internal/gateway"
	"github.com/TushxrTxndon/CampusBazaar/internal/imaging"
	"github.com/TushxrTxndon/CampusBazaar/internal/models"
)

// ImageFile is an image submitted by a seller
type ImageFile struct {
	Name string
	Data []byte
}

// NewListing offers stock of an existing product (PID set) or of a new product
type NewListing struct {
	PID         string  `json:"PID,omitempty"`
	ProductName string  `json:"ProductName,omitempty"`
	Description string  `json:"Description,omitempty"`
	Price       float64 `json:"Price,omitempty"`
	Stock       int     `json:"Stock"`
	CategoryID  int     `json:"CategoryID,omitempty"`
}

// ListingService manages the current user's product listings
type ListingService struct {
	gw            *gateway.Client
	session       *SessionService
	imageMaxWidth int
	logger        *slog.Logger
}

func NewListingService(gw *gateway.Client, session *SessionService, imageMaxWidth int, logger *slog.Logger) *ListingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ListingService{
		gw:            gw,
		session:       session,
		imageMaxWidth: imageMaxWidth,
		logger:        logger.With("component", "listings"),
	}
}

// Mine lists what the current user sells
func (s *ListingService) Mine(ctx context.Context) ([]models.Listing, error) {
	user, err := s.session.RequireUser()
	if err != nil {
		return nil, err
	}
	listings, err := s.gw.UserListings(ctx, user.EmailID)
	if err != nil {
		return nil, fmt.Errorf("failed to get listings: %w", err)
	}
	if listings == nil {
		listings = []models.Listing{}
	}
	return listings, nil
}

// Add lists stock of a product. For a new product it is created first, then its
// images are uploaded in order and its category assigned; a failed category
// assignment is logged and does not fail the listing.
func (s *ListingService) Add(ctx context.Context, l NewListing, images []ImageFile) (string, error) {
	user, err := s.session.RequireUser()
	if err != nil {
		return "", err
	}
	if l.Stock <= 0 {
		return "", invalid("Stock must be greater than 0")
	}

	pid := strings.TrimSpace(l.PID)
	if pid == "" {
		if strings.TrimSpace(l.ProductName) == "" || strings.TrimSpace(l.Description) == "" || l.Price <= 0 {
			return "", invalid("All product fields are required for new products")
		}

		prepared := make([]*imaging.Prepared, 0, len(images))
		for _, img := range images {
			p, err := imaging.Prepare(img.Name, img.Data, s.imageMaxWidth)
			if err != nil {
				return "", invalidImage(img.Name, err)
			}
			prepared = append(prepared, p)
		}

		created, err := s.gw.AddProduct(ctx, models.NewProductRequest{
			ProductName: l.ProductName,
			Description: l.Description,
			Price:       l.Price,
		})
		if err != nil {
			return "", fmt.Errorf("failed to add product: %w", err)
		}
		pid = created.PID

		for i, p := range prepared {
			if err := s.attachImage(ctx, pid, p, i); err != nil {
				return pid, err
			}
		}

		if l.CategoryID > 0 {
			err := s.gw.AssignCategory(ctx, models.ProductCategoryRequest{PID: pid, CategoryID: l.CategoryID})
			if err != nil {
				s.logger.Warn("failed to assign category", "pid", pid, "category_id", l.CategoryID, "error", err)
			}
		}
	}

	if err := s.gw.AddListing(ctx, models.ListingRequest{EmailID: user.EmailID, PID: pid, Stock: l.Stock}); err != nil {
		return pid, fmt.Errorf("failed to add listing: %w", err)
	}
	s.logger.Info("listing added", "pid", pid, "stock", l.Stock)
	return pid, nil
}

// UpdateStock changes the stock of one of the user's listings
func (s *ListingService) UpdateStock(ctx context.Context, pid string, stock int) error {
	user, err := s.session.RequireUser()
	if err != nil {
		return err
	}
	if stock < 0 {
		return invalid("Stock cannot be negative")
	}
	if err := s.gw.UpdateListing(ctx, models.ListingRequest{EmailID: user.EmailID, PID: pid, Stock: stock}); err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}
	return nil
}

// Remove withdraws one of the user's listings
func (s *ListingService) Remove(ctx context.Context, pid string) (*models.RemoveListingResponse, error) {
	user, err := s.session.RequireUser()
	if err != nil {
		return nil, err
	}
	resp, err := s.gw.RemoveListing(ctx, user.EmailID, pid)
	if err != nil {
		return nil, fmt.Errorf("failed to remove listing: %w", err)
	}
	return resp, nil
}

// AddImage uploads one more image for pid, placed after the existing ones
func (s *ListingService) AddImage(ctx context.Context, pid string, img ImageFile) (*models.ProductImage, error) {
	if _, err := s.session.RequireUser(); err != nil {
		return nil, err
	}
	p, err := imaging.Prepare(img.Name, img.Data, s.imageMaxWidth)
	if err != nil {
		return nil, invalidImage(img.Name, err)
	}
	existing, err := s.gw.ProductImages(ctx, pid)
	if err != nil {
		return nil, fmt.Errorf("failed to get images for %s: %w", pid, err)
	}

	order := 0
	for _, e := range existing {
		if e.DisplayOrder >= order {
			order = e.DisplayOrder + 1
		}
	}
	upload, err := s.gw.UploadProductImage(ctx, p.Filename, p.ContentType, p.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}
	added, err := s.gw.AddProductImage(ctx, models.NewImageRequest{PID: pid, ImageURL: upload.ImageURL, DisplayOrder: order})
	if err != nil {
		return nil, fmt.Errorf("failed to attach image: %w", err)
	}
	return &models.ProductImage{ImageID: added.ImageID, PID: pid, ImageURL: upload.ImageURL, DisplayOrder: order}, nil
}

// DeleteImage removes an image
func (s *ListingService) DeleteImage(ctx context.Context, imageID int) error {
	if _, err := s.session.RequireUser(); err != nil {
		return err
	}
	if err := s.gw.DeleteProductImage(ctx, imageID); err != nil {
		return fmt.Errorf("failed to delete image %d: %w", imageID, err)
	}
	return nil
}

// ReorderImages sets the display order of pid's images to the order of imageIDs
func (s *ListingService) ReorderImages(ctx context.Context, pid string, imageIDs []int) error {
	if _, err := s.session.RequireUser(); err != nil {
		return err
	}
	seen := make(map[int]bool, len(imageIDs))
	order := make([]models.ImageOrder, 0, len(imageIDs))
	for i, id := range imageIDs {
		if seen[id] {
			return invalid("image %d listed twice", id)
		}
		seen[id] = true
		order = append(order, models.ImageOrder{ImageID: id, DisplayOrder: i})
	}
	if err := s.gw.ReorderProductImages(ctx, pid, order); err != nil {
		return fmt.Errorf("failed to reorder images: %w", err)
	}
	return nil
}

func (s *ListingService) attachImage(ctx context.Context, pid string, p *imaging.Prepared, order int) error {
	upload, err := s.gw.UploadProductImage(ctx, p.Filename, p.ContentType, p.Data)
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", p.Filename, err)
	}
	if _, err := s.gw.AddProductImage(ctx, models.NewImageRequest{PID: pid, ImageURL: upload.ImageURL, DisplayOrder: order}); err != nil {
		return fmt.Errorf("failed to attach %s: %w", p.Filename, err)
	}
	if p.Resized {
		s.logger.Debug("image downscaled", "pid", pid, "file", p.Filename, "width", p.Width)
	}
	return nil
}
