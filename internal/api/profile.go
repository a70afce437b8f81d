package api

import (
	"context"
	"fmt"
	"net/http"

	"animehub-client/internal/models"
)

func (c *Client) Profile(ctx context.Context) (models.Profile, error) {
	var profile models.Profile
	err := c.do(ctx, request{method: http.MethodGet, route: "/api/auth/profile", path: "/api/auth/profile"}, &profile)
	return profile, err
}

// UpdateProfile changes username and email and returns the updated user.
func (c *Client) UpdateProfile(ctx context.Context, username, email string) (models.User, error) {
	var res struct {
		Message string      `json:"message"`
		User    models.User `json:"user"`
	}
	req, err := jsonRequest(http.MethodPost, "/api/auth/update-profile", "/api/auth/update-profile", map[string]string{
		"username": username,
		"email":    email,
	})
	if err != nil {
		return models.User{}, err
	}
	err = c.do(ctx, req, &res)
	return res.User, err
}

// UploadProfilePicture replaces the profile picture and returns its new URL.
func (c *Client) UploadProfilePicture(ctx context.Context, file models.Attachment) (string, error) {
	body, contentType, err := buildMultipart(nil, "profilePicture", &file)
	if err != nil {
		return "", fmt.Errorf("encode picture: %w", err)
	}

	var res struct {
		ProfilePicture string `json:"profilePicture"`
	}
	err = c.do(ctx, request{
		method:      http.MethodPost,
		route:       "/api/auth/upload-profile-pic",
		path:        "/api/auth/upload-profile-pic",
		body:        body,
		contentType: contentType,
	}, &res)
	return res.ProfilePicture, err
}

func (c *Client) DeleteProfilePicture(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodDelete, route: "/api/auth/delete-profile-pic", path: "/api/auth/delete-profile-pic"}, nil)
}
