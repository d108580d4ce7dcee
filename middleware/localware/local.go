package localware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	local "github.com/goliatone/go-auth-local"
)

const (
	// DefaultContextKey is the Locals key holding the authenticated *local.User
	DefaultContextKey = "user"
	// DefaultMessageCookie carries the failure message across a redirect
	DefaultMessageCookie = "auth_message"
)

// ErrNoOutcome is returned when a strategy finished without calling its host
var ErrNoOutcome = errors.New("authentication strategy produced no outcome", errors.CategoryInternal).
	WithTextCode("NO_OUTCOME").
	WithCode(errors.CodeInternal)

type Config struct {
	// Filter skips the middleware when it returns true
	Filter func(*fiber.Ctx) bool

	// Strategy is used when set, otherwise StrategyName is resolved
	// against Registry on every request.
	Strategy     local.AuthenticationStrategy
	Registry     *local.Registry
	StrategyName string

	// AuthenticateOptions are forwarded to every Authenticate call
	AuthenticateOptions []local.AuthenticateOption

	ContextKey      string
	SuccessRedirect string
	FailureRedirect string
	MessageCookie   string

	SuccessHandler func(c *fiber.Ctx, user *local.User, info local.Info) error
	FailureHandler func(c *fiber.Ctx, info local.Info) error
	ErrorHandler   func(c *fiber.Ctx, err error) error

	Logger local.Logger
}

// GetDefaultConfig fills the zero fields of the first config
func GetDefaultConfig(config ...Config) Config {
	var cfg Config
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = DefaultContextKey
	}

	if cfg.MessageCookie == "" {
		cfg.MessageCookie = DefaultMessageCookie
	}

	if cfg.StrategyName == "" {
		cfg.StrategyName = local.StrategyName
	}

	if cfg.Logger == nil {
		cfg.Logger = local.DefaultLogger()
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = cfg.defaultSuccess
	}

	if cfg.FailureHandler == nil {
		cfg.FailureHandler = cfg.defaultFailure
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = cfg.defaultError
	}

	return cfg
}

// New returns a handler that runs the configured strategy against the
// request and routes its single outcome to the matching handler.
func New(config ...Config) fiber.Handler {
	cfg := GetDefaultConfig(config...)

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		strategy, err := cfg.strategy()
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		req, err := RequestFromFiber(c)
		if err != nil {
			return cfg.FailureHandler(c, local.Info{
				Message: local.MessageMissingCredentials,
				Err:     local.ErrMissingCredentials.Clone().WithMetadata(map[string]any{"cause": err.Error()}),
			})
		}

		rec := &local.Recorder{}
		strategy.Authenticate(c.UserContext(), req, rec, cfg.AuthenticateOptions...)

		outcome, ok := rec.Last()
		if !ok {
			return cfg.ErrorHandler(c, ErrNoOutcome)
		}

		switch outcome.Kind {
		case local.OutcomeSuccess:
			c.Locals(cfg.ContextKey, outcome.User)
			c.SetUserContext(local.WithContext(c.UserContext(), outcome.User))
			return cfg.SuccessHandler(c, outcome.User, outcome.Info)
		case local.OutcomeFail:
			return cfg.FailureHandler(c, outcome.Info)
		default:
			return cfg.ErrorHandler(c, outcome.Err)
		}
	}
}

// CurrentUser returns the user stored by a successful authentication
func CurrentUser(c *fiber.Ctx, key ...string) (*local.User, bool) {
	k := DefaultContextKey
	if len(key) > 0 && key[0] != "" {
		k = key[0]
	}
	user, ok := c.Locals(k).(*local.User)
	return user, ok && user != nil
}

// FailureMessage reads and clears the message left by a failure redirect
func FailureMessage(c *fiber.Ctx, cookie ...string) string {
	name := DefaultMessageCookie
	if len(cookie) > 0 && cookie[0] != "" {
		name = cookie[0]
	}

	raw := c.Cookies(name)
	if raw == "" {
		return ""
	}
	c.ClearCookie(name)

	msg, err := url.QueryUnescape(raw)
	if err != nil {
		return raw
	}
	return msg
}

// RequestFromFiber decodes the body and query string of a fiber request
func RequestFromFiber(c *fiber.Ctx) (local.Request, error) {
	query := url.Values{}
	c.Context().QueryArgs().VisitAll(func(k, v []byte) {
		query.Add(string(k), string(v))
	})

	var body map[string]any
	method := c.Method()
	if method == fiber.MethodGet || method == fiber.MethodHead {
		return local.NewRequest(body, local.ParseFormValues(query)), nil
	}

	contentType := strings.ToLower(c.Get(fiber.HeaderContentType))
	switch {
	case strings.HasPrefix(contentType, fiber.MIMEApplicationJSON) || strings.Contains(contentType, "+json"):
		raw := c.Body()
		if len(raw) > 0 {
			body = map[string]any{}
			dec := json.NewDecoder(bytes.NewReader(raw))
			dec.UseNumber()
			if err := dec.Decode(&body); err != nil {
				return nil, err
			}
		}
	case strings.HasPrefix(contentType, fiber.MIMEMultipartForm):
		form, err := c.MultipartForm()
		if err != nil {
			return nil, err
		}
		body = local.ParseFormValues(url.Values(form.Value))
	default:
		values := url.Values{}
		c.Context().PostArgs().VisitAll(func(k, v []byte) {
			values.Add(string(k), string(v))
		})
		body = local.ParseFormValues(values)
	}

	return local.NewRequest(body, local.ParseFormValues(query)), nil
}

func (cfg Config) strategy() (local.AuthenticationStrategy, error) {
	if cfg.Strategy != nil {
		return cfg.Strategy, nil
	}
	if cfg.Registry == nil {
		return nil, local.ErrStrategyNotFound.Clone().
			WithMetadata(map[string]any{"name": cfg.StrategyName})
	}
	return cfg.Registry.Get(cfg.StrategyName)
}

func (cfg Config) defaultSuccess(c *fiber.Ctx, _ *local.User, _ local.Info) error {
	if cfg.SuccessRedirect != "" {
		return c.Redirect(cfg.SuccessRedirect, fiber.StatusSeeOther)
	}
	return c.Next()
}

func (cfg Config) defaultFailure(c *fiber.Ctx, info local.Info) error {
	if cfg.FailureRedirect != "" {
		c.Cookie(&fiber.Cookie{
			Name:     cfg.MessageCookie,
			Value:    url.QueryEscape(info.Message),
			HTTPOnly: true,
			Expires:  time.Now().Add(time.Minute),
		})
		return c.Redirect(cfg.FailureRedirect, fiber.StatusSeeOther)
	}

	status := fiber.StatusUnauthorized
	code := ""
	var richErr *errors.Error
	if errors.As(info.Err, &richErr) {
		code = richErr.TextCode
		if richErr.Category == errors.CategoryBadInput {
			status = fiber.StatusBadRequest
		}
	}

	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": info.Message,
		"code":    code,
	})
}

func (cfg Config) defaultError(c *fiber.Ctx, err error) error {
	cfg.Logger.Error("authentication error: %v", err)

	status := http.StatusInternalServerError
	if errors.IsNotFound(err) {
		status = http.StatusNotImplemented
	}
	return fiber.NewError(status, "authentication unavailable")
}
