package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"tubecast/internal/fileutil"
	"tubecast/internal/logging"
	"tubecast/internal/services"
)

// OAuth scopes requested by the CLI.
const (
	ScopeUpload   = "https://www.googleapis.com/auth/youtube.upload"
	ScopeReadOnly = "https://www.googleapis.com/auth/youtube.readonly"
	ScopeManage   = "https://www.googleapis.com/auth/youtube"
)

// DefaultScopes cover uploads plus the metadata and playlist edits.
var DefaultScopes = []string{ScopeUpload, ScopeManage}

// ErrNotAuthorized is returned when no stored token exists.
var ErrNotAuthorized = errors.New("youtube account not authorized; run `tubecast setup`")

const callbackPath = "/oauth2/callback"

// LoadOAuthConfig reads a desktop-app client secret downloaded from the
// Google Cloud console.
func LoadOAuthConfig(clientSecretPath string, scopes ...string) (*oauth2.Config, error) {
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	data, err := os.ReadFile(clientSecretPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, services.Wrap(services.ErrConfiguration, "youtube", "load client secret", fmt.Sprintf("no client secret at %s; run `tubecast setup`", clientSecretPath), nil)
		}
		return nil, services.Wrap(services.ErrConfiguration, "youtube", "load client secret", "", err)
	}
	cfg, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "youtube", "parse client secret", clientSecretPath, err)
	}
	return cfg, nil
}

// TokenStore persists OAuth tokens between runs.
type TokenStore interface {
	Load() (*oauth2.Token, error)
	Save(*oauth2.Token) error
}

// FileTokenStore keeps the token as JSON on disk.
type FileTokenStore struct {
	path string
}

// NewFileTokenStore builds a FileTokenStore at path.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// Path returns the token file location.
func (s *FileTokenStore) Path() string { return s.path }

// Load reads the stored token. A missing file yields a nil token.
func (s *FileTokenStore) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read oauth token: %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("decode oauth token: %w", err)
	}
	return &token, nil
}

// Save writes the token with owner-only permissions.
func (s *FileTokenStore) Save(token *oauth2.Token) error {
	if token == nil {
		return errors.New("save oauth token: token is nil")
	}
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("encode oauth token: %w", err)
	}
	if err := fileutil.WriteFileAtomic(s.path, data, 0o600); err != nil {
		return fmt.Errorf("save oauth token: %w", err)
	}
	return nil
}

// AuthorizeOptions tune the loopback authorization flow.
type AuthorizeOptions struct {
	// Out receives the authorization URL. Nil discards it.
	Out io.Writer
	// OpenBrowser is called with the authorization URL when set.
	OpenBrowser func(url string) error
	// ListenAddr is the loopback address for the redirect. Defaults to
	// 127.0.0.1:0.
	ListenAddr string
	// Timeout bounds the wait for the browser callback. Zero waits for ctx.
	Timeout time.Duration
	Logger  *slog.Logger
}

type callbackResult struct {
	code string
	err  error
}

// Authorize runs the installed-app flow: it serves a loopback redirect,
// sends the user to the consent page with a PKCE challenge, exchanges the
// returned code and stores the token.
func Authorize(ctx context.Context, cfg *oauth2.Config, store TokenStore, opts AuthorizeOptions) (*oauth2.Token, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("authorize: oauth config and token store required")
	}
	logger := logging.NewComponentLogger(opts.Logger, "youtube-auth")
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	addr := opts.ListenAddr
	if addr == "" {
		addr = "127.0.0.1:0"
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "youtube", "authorize", "listen for oauth callback", err)
	}
	flow := *cfg
	flow.RedirectURL = "http://" + listener.Addr().String() + callbackPath

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	authURL := flow.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.S256ChallengeOption(verifier),
	)

	results := make(chan callbackResult, 1)
	router := mux.NewRouter()
	router.HandleFunc(callbackPath, callbackHandler(state, results)).Methods(http.MethodGet)
	server := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if serveErr := server.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Debug("oauth callback server stopped", logging.Error(serveErr))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	fmt.Fprintf(out, "Open this URL in your browser to authorize TubeCast:\n\n  %s\n\n", authURL)
	logger.Info("waiting for oauth callback", logging.String("redirect_url", flow.RedirectURL))
	if opts.OpenBrowser != nil {
		if openErr := opts.OpenBrowser(authURL); openErr != nil {
			logger.Debug("browser launch failed", logging.Error(openErr))
		}
	}

	var result callbackResult
	select {
	case result = <-results:
	case <-ctx.Done():
		return nil, services.Wrap(services.ErrAuthorization, "youtube", "authorize", "timed out waiting for browser consent", ctx.Err())
	}
	if result.err != nil {
		return nil, services.Wrap(services.ErrAuthorization, "youtube", "authorize", "", result.err)
	}

	token, err := flow.Exchange(ctx, result.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, services.Wrap(services.ErrAuthorization, "youtube", "exchange code", "", err)
	}
	if err := store.Save(token); err != nil {
		return nil, err
	}
	logger.Info("oauth token stored", logging.Bool("refresh_token", token.RefreshToken != ""))
	return token, nil
}

func callbackHandler(state string, results chan<- callbackResult) http.HandlerFunc {
	var once sync.Once
	deliver := func(res callbackResult) {
		once.Do(func() { results <- res })
	}
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if reason := query.Get("error"); reason != "" {
			http.Error(w, "Authorization was denied. You can close this window.", http.StatusForbidden)
			deliver(callbackResult{err: fmt.Errorf("consent denied: %s", reason)})
			return
		}
		if query.Get("state") != state {
			http.Error(w, "State mismatch.", http.StatusBadRequest)
			return
		}
		code := query.Get("code")
		if code == "" {
			http.Error(w, "Missing authorization code.", http.StatusBadRequest)
			deliver(callbackResult{err: errors.New("callback without authorization code")})
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "TubeCast is authorized. You can close this window.\n")
		deliver(callbackResult{code: code})
	}
}

// TokenSource returns a token source seeded from store that writes refreshed
// tokens back to it.
func TokenSource(ctx context.Context, cfg *oauth2.Config, store TokenStore, logger *slog.Logger) (oauth2.TokenSource, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("token source: oauth config and token store required")
	}
	token, err := store.Load()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "youtube", "load token", "", err)
	}
	if token == nil {
		return nil, services.Wrap(services.ErrAuthorization, "youtube", "load token", "", ErrNotAuthorized)
	}
	return &persistingTokenSource{
		base:   oauth2.ReuseTokenSource(token, cfg.TokenSource(ctx, token)),
		store:  store,
		last:   token.AccessToken,
		logger: logging.NewComponentLogger(logger, "youtube-auth"),
	}, nil
}

type persistingTokenSource struct {
	mu     sync.Mutex
	base   oauth2.TokenSource
	store  TokenStore
	last   string
	logger *slog.Logger
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, err := s.base.Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, services.Wrap(services.ErrAuthorization, "youtube", "refresh token", "stored token rejected; run `tubecast setup`", err)
		}
		return nil, err
	}
	if token.AccessToken != s.last {
		if saveErr := s.store.Save(token); saveErr != nil {
			logging.WarnWithContext(s.logger, "refreshed token not persisted", "token_persist",
				logging.Error(saveErr),
				logging.String(logging.FieldImpact, "next run refreshes the token again"),
			)
		} else {
			s.logger.Debug("refreshed oauth token persisted")
		}
		s.last = token.AccessToken
	}
	return token, nil
}
