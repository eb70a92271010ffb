package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"stockcart/internal/pkg/cache"
	"stockcart/internal/pkg/logger"
)

// ErrorCategoryRateLimited é a categoria devolvida quando a janela estoura.
const ErrorCategoryRateLimited = "RATE_LIMITED"

// RateLimiter limita requisições por IP numa janela fixa guardada no Redis.
// Se o Redis falhar a requisição passa (fail-open) e o erro é registrado.
func RateLimiter(client cache.Client, limit int, window time.Duration, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			key := "rate-limit:" + ip

			count, err := client.Incr(r.Context(), key, window)
			if err != nil {
				log.Error("Falha no rate limiter, requisição liberada", err)
				next.ServeHTTP(w, r)
				return
			}

			remaining := limit - int(count)
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if int(count) > limit {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				fmt.Fprintf(w, `{"code":%d,"category":%q,"message":"Limite de requisições excedido."}`, http.StatusTooManyRequests, ErrorCategoryRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
