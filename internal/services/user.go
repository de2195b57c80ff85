package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/TushxrTxndon/CampusBazaar/internal/gateway"
	"github.com/TushxrTxndon/CampusBazaar/internal/models"
)

// RegisterRequest is a new account, optionally with student or faculty details
type RegisterRequest struct {
	EmailID     string              `json:"EmailID"`
	FirstName   string              `json:"FirstName"`
	LastName    string              `json:"LastName"`
	Password    string              `json:"Password"`
	UserType    string              `json:"UserType"`
	StudentInfo *models.StudentInfo `json:"StudentInfo,omitempty"`
	FacultyInfo *models.FacultyInfo `json:"FacultyInfo,omitempty"`
}

func (r *RegisterRequest) validate() error {
	if strings.TrimSpace(r.EmailID) == "" || r.Password == "" || strings.TrimSpace(r.FirstName) == "" {
		return invalid("EmailID, FirstName and Password are required")
	}
	switch r.UserType {
	case "", models.UserTypeRegular:
	case models.UserTypeStudent:
		si := r.StudentInfo
		if si == nil || si.EnrollmentNo == "" || si.Course == "" || si.Batch == "" {
			return invalid("All student fields are required")
		}
	case models.UserTypeFaculty:
		fi := r.FacultyInfo
		if fi == nil || fi.FacultyID == "" || fi.Department == "" || fi.Designation == "" {
			return invalid("All faculty fields are required")
		}
	default:
		return invalid("unknown user type %q", r.UserType)
	}
	return nil
}

// UserService handles account registration and password login
type UserService struct {
	gw      *gateway.Client
	session *SessionService
	logger  *slog.Logger
}

// NewUserService creates a new user service
func NewUserService(gw *gateway.Client, session *SessionService, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{gw: gw, session: session, logger: logger.With("component", "accounts")}
}

// Register creates the account, attaches the student or faculty record and logs the user in
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (models.UserProfile, error) {
	if err := req.validate(); err != nil {
		return models.UserProfile{}, err
	}

	err := s.gw.RegisterUser(ctx, models.RegisterUserRequest{
		EmailID:   req.EmailID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("failed to register user: %w", err)
	}

	profile := models.UserProfile{
		EmailID:   req.EmailID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		UserType:  req.UserType,
	}

	switch req.UserType {
	case models.UserTypeStudent:
		info := *req.StudentInfo
		info.EmailID = req.EmailID
		if err := s.gw.RegisterStudent(ctx, info); err != nil {
			return models.UserProfile{}, fmt.Errorf("failed to register student: %w", err)
		}
		profile.StudentInfo = &info
	case models.UserTypeFaculty:
		info := *req.FacultyInfo
		info.EmailID = req.EmailID
		if err := s.gw.RegisterFaculty(ctx, info); err != nil {
			return models.UserProfile{}, fmt.Errorf("failed to register faculty: %w", err)
		}
		profile.FacultyInfo = &info
	}

	s.logger.Info("account registered", "email", req.EmailID, "user_type", profile.Normalize().UserType)
	return s.session.loginVia(ctx, "register", profile)
}

// Login authenticates against the backend and stores the returned profile
func (s *UserService) Login(ctx context.Context, email, password string) (models.UserProfile, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return models.UserProfile{}, invalid("EmailID and Password are required")
	}
	user, err := s.gw.LoginUser(ctx, models.LoginRequest{EmailID: email, Password: password})
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("login failed: %w", err)
	}
	return s.session.loginVia(ctx, "password", *user)
}
