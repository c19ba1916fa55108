package middleware

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const TurnstileVerifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

type CaptchaConfig struct {
	Enabled   bool
	Secret    string
	VerifyURL string
	Client    *http.Client
}

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// NewCaptchaMiddleware checks the Turnstile token sent in the
// TurnstileToken header. Public forms (signup, supplier applications) sit
// behind it.
func NewCaptchaMiddleware(cfg CaptchaConfig) gin.HandlerFunc {
	if cfg.VerifyURL == "" {
		cfg.VerifyURL = TurnstileVerifyURL
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 5 * time.Second}
	}

	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.Next()
			return
		}

		token := c.GetHeader("TurnstileToken")
		if token == "" {
			abort(c, http.StatusBadRequest, "Missing or invalid turnstile token")
			return
		}

		form := url.Values{
			"secret":   {cfg.Secret},
			"response": {token},
			"remoteip": {c.ClientIP()},
		}

		req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodPost, cfg.VerifyURL, strings.NewReader(form.Encode()))
		if err != nil {
			abort(c, http.StatusInternalServerError, "Internal server error")
			return
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := cfg.Client.Do(req)
		if err != nil {
			abort(c, http.StatusBadGateway, "Captcha verification unavailable")
			zap.L().Error("Failed to reach captcha verifier", zap.Error(err), zap.String("requestID", c.GetString("requestID")))
			return
		}
		defer resp.Body.Close()

		var res siteverifyResponse
		if err := json.NewDecoder(resp.Body).Decode(&res); err != nil || !res.Success {
			abort(c, http.StatusUnauthorized, "Captcha verification failed")
			return
		}

		c.Next()
	}
}
