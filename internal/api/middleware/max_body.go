package middleware

import (
	"net/http"

	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/api"
	"github.com/abhay-patil-cse27/agri-scheme-eligibility-rag-sub001/internal/domain"
)

// MaxBodyBytes rejects declared oversize bodies up front and caps the rest
// while they are read. A non-positive limit disables the check.
func MaxBodyBytes(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body == nil || r.Body == http.NoBody {
				next.ServeHTTP(w, r)
				return
			}
			if r.ContentLength > limit {
				api.JSON(w, http.StatusRequestEntityTooLarge, api.ErrorResponse{
					Error: "request body exceeds the upload limit",
					Code:  domain.ErrCodeValidation,
				})
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
