package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"animehub-client/internal/api"
	"animehub-client/internal/models"
	"animehub-client/internal/render"
	"animehub-client/internal/telemetry"
)

var ErrMissingFields = errors.New("username and email are required")

// NoPictureURL is shown when the user has no profile picture.
const NoPictureURL = "https://via.placeholder.com/150?text=Profile+Pic"

type API interface {
	Profile(ctx context.Context) (models.Profile, error)
	Me(ctx context.Context) (models.User, error)
	UpdateProfile(ctx context.Context, username, email string) (models.User, error)
	UploadProfilePicture(ctx context.Context, file models.Attachment) (string, error)
	DeleteProfilePicture(ctx context.Context) error
}

type Activity interface {
	Emit(ctx context.Context, eventType string, userID models.ID, payload telemetry.ActivityPayload)
}

type Service struct {
	api      API
	activity Activity
	logger   *zap.Logger
}

type Option func(*Service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithActivity(activity Activity) Option {
	return func(s *Service) {
		s.activity = activity
	}
}

func NewService(client API, opts ...Option) *Service {
	s := &Service{api: client, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the caller's profile. Backends without the profile route
// get a profile built from the session user.
func (s *Service) Load(ctx context.Context) (models.Profile, error) {
	p, err := s.api.Profile(ctx)
	if err == nil {
		return p, nil
	}

	var statusErr *api.StatusError
	if !errors.As(err, &statusErr) {
		return models.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	s.logger.Debug("profile route failed, falling back to session user", zap.Error(err))

	user, err := s.api.Me(ctx)
	if err != nil {
		return models.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	return models.Profile{
		ID:             user.ID,
		Username:       user.Username,
		Email:          user.Email,
		ProfilePicture: user.Picture(),
		JoinedAt:       user.CreatedAt,
	}, nil
}

// Update changes username and email, then uploads picture when given. All
// input is checked before the first call.
func (s *Service) Update(ctx context.Context, username, email string, picture *models.Attachment) (models.Profile, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" {
		return models.Profile{}, ErrMissingFields
	}
	if picture != nil && picture.Size() == 0 {
		picture = nil
	}
	if err := picture.Validate(); err != nil {
		return models.Profile{}, err
	}

	user, err := s.api.UpdateProfile(ctx, username, email)
	if err != nil {
		return models.Profile{}, fmt.Errorf("update profile: %w", err)
	}
	if picture != nil {
		if _, err := s.api.UploadProfilePicture(ctx, *picture); err != nil {
			return models.Profile{}, fmt.Errorf("upload profile picture: %w", err)
		}
	}
	if s.activity != nil {
		s.activity.Emit(ctx, telemetry.EventProfileUpdated, user.ID, telemetry.ActivityPayload{})
	}
	return s.Load(ctx)
}

// UploadPicture replaces the profile picture and returns its URL.
func (s *Service) UploadPicture(ctx context.Context, file models.Attachment) (string, error) {
	if file.Size() == 0 {
		return "", models.ErrNotImage
	}
	if err := file.Validate(); err != nil {
		return "", err
	}
	url, err := s.api.UploadProfilePicture(ctx, file)
	if err != nil {
		return "", fmt.Errorf("upload profile picture: %w", err)
	}
	return url, nil
}

func (s *Service) DeletePicture(ctx context.Context) error {
	if err := s.api.DeleteProfilePicture(ctx); err != nil {
		return fmt.Errorf("delete profile picture: %w", err)
	}
	return nil
}

// View is the display form of a profile.
type View struct {
	Welcome       string
	Username      string
	Email         string
	PictureURL    string
	Joined        string
	ReviewsPosted int
}

func NewView(p models.Profile, origin string) View {
	v := View{
		Welcome:       "Welcome, " + p.Username + "!",
		Username:      p.Username,
		Email:         p.Email,
		PictureURL:    NoPictureURL,
		ReviewsPosted: p.ReviewsPosted,
	}
	if p.ProfilePicture != "" {
		v.PictureURL = render.ImageURL(origin, p.ProfilePicture)
	}
	if !p.JoinedAt.IsZero() {
		v.Joined = p.JoinedAt.Format("Jan 2, 2006")
	}
	return v
}
