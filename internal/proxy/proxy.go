package proxy

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"storefront-service/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Options configures a GraphQL dev proxy
type Options struct {
	Target           string
	PathPrefix       string
	InsecureUpstream bool
}

// New returns a reverse proxy that forwards requests under PathPrefix to
// Target, with the prefix replaced by the target's own path.
func New(opts Options) (*httputil.ReverseProxy, error) {
	target, err := url.Parse(opts.Target)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy target: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid proxy target: %q", opts.Target)
	}

	logger := util.GetLogger().Named("devproxy")
	prefix := strings.TrimSuffix(opts.PathPrefix, "/")

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.InsecureUpstream {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &httputil.ReverseProxy{
		Rewrite: func(r *httputil.ProxyRequest) {
			r.SetURL(target)
			r.Out.URL.Path = rewritePath(r.In.URL.Path, prefix, target.Path)
			if r.Out.URL.Path == "" {
				r.Out.URL.Path = "/"
			}
			r.Out.URL.RawPath = ""
			// The transport negotiates gzip itself and decompresses before ModifyResponse.
			r.Out.Header.Del("Accept-Encoding")
			r.SetXForwarded()
			logger.Debug("Forwarding request", zap.String("url", r.Out.URL.String()))
		},
		Transport: transport,
		ModifyResponse: func(resp *http.Response) error {
			body, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				return err
			}
			resp.Body = io.NopCloser(bytes.NewReader(body))

			if enc := resp.Header.Get("Content-Encoding"); enc != "" && enc != "identity" {
				logger.Debug("Upstream response", zap.Int("status", resp.StatusCode), zap.String("encoding", enc))
				return nil
			}
			if !json.Valid(body) {
				logger.Warn("Invalid JSON response from upstream",
					zap.Int("status", resp.StatusCode),
					zap.ByteString("body", body))
				return nil
			}
			logger.Debug("Upstream response", zap.Int("status", resp.StatusCode), zap.Int("bytes", len(body)))
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error("Proxy error", zap.String("path", r.URL.Path), zap.Error(err))
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, "Proxy error occurred")
		},
	}, nil
}

// rewritePath swaps prefix for targetPath when path is prefix itself or lies
// below it. Other paths are appended to targetPath unchanged.
func rewritePath(path, prefix, targetPath string) string {
	base := strings.TrimSuffix(targetPath, "/")
	if prefix != "" && (path == prefix || strings.HasPrefix(path, prefix+"/")) {
		return base + strings.TrimPrefix(path, prefix)
	}
	return base + path
}

// SetupRoutes mounts p under prefix
func SetupRoutes(router *gin.Engine, prefix string, p http.Handler) {
	prefix = "/" + strings.Trim(prefix, "/")
	h := gin.WrapH(p)
	router.Any(prefix, h)
	router.Any(prefix+"/*rest", h)
}
