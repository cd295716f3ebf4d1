package api

import (
	"time"

	"github.com/checkpointhq/checkpoint/internal/domain"
)

type userResponse struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	AgeVerified   bool   `json:"age_verified"`
	CreatedAt     string `json:"created_at"`
}

func newUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:            string(u.ID),
		Username:      u.Username,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		AgeVerified:   u.AgeVerified,
		CreatedAt:     u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type loginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int          `json:"expires_in"`
	User        userResponse `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type statusCheckResponse struct {
	ID         string `json:"id"`
	ClientName string `json:"client_name"`
	Timestamp  string `json:"timestamp"`
}

func newStatusCheckResponse(sc *domain.StatusCheck) statusCheckResponse {
	return statusCheckResponse{
		ID:         string(sc.ID),
		ClientName: sc.ClientName,
		Timestamp:  sc.Timestamp.UTC().Format(time.RFC3339),
	}
}

type fileResponse struct {
	Key          string `json:"key"`
	Size         int64  `json:"size"`
	LastModified string `json:"last_modified"`
}

type fileListResponse struct {
	Files []fileResponse `json:"files"`
}

type uploadResponse struct {
	Bucket   string `json:"bucket"`
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	Location string `json:"location"`
}

type bucketUsageResponse struct {
	FileCount int   `json:"file_count"`
	TotalSize int64 `json:"total_size"`
}

type storageSummaryResponse struct {
	FileCount int                            `json:"file_count"`
	TotalSize int64                          `json:"total_size"`
	Buckets   map[string]bucketUsageResponse `json:"buckets"`
}

type redirectResponse struct {
	URL string `json:"url"`
}

type healthResponse struct {
	Status string `json:"status"`
}
