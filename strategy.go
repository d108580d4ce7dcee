package local

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// StrategyName is the name strategies register under by default
const StrategyName = "local"

// Strategy authenticates requests carrying a username and password
type Strategy struct {
	name         string
	cfg          Config
	store        UserStore
	hasher       *Hasher
	verify       VerifyFunc
	verifyReq    VerifyRequestFunc
	logger       Logger
	activitySink ActivitySink
}

var _ AuthenticationStrategy = (*Strategy)(nil)

// Option configures a Strategy
type Option func(*Strategy)

func WithName(name string) Option {
	return func(s *Strategy) {
		if name != "" {
			s.name = name
		}
	}
}

func WithLogger(logger Logger) Option {
	return func(s *Strategy) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func WithActivitySink(sink ActivitySink) Option {
	return func(s *Strategy) {
		s.activitySink = normalizeActivitySink(sink)
	}
}

// WithVerify replaces the store backed verification step
func WithVerify(fn VerifyFunc) Option {
	return func(s *Strategy) {
		if fn != nil {
			s.verify = fn
		}
	}
}

// WithVerifyRequest replaces the verification step used when
// PassReqToCallback is set
func WithVerifyRequest(fn VerifyRequestFunc) Option {
	return func(s *Strategy) {
		if fn != nil {
			s.verifyReq = fn
		}
	}
}

// New builds a Strategy and provisions the user schema in its store
func New(ctx context.Context, cfg Config, opts ...Option) (*Strategy, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "invalid local strategy config")
	}

	s := &Strategy{
		name:         StrategyName,
		cfg:          cfg,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
		hasher: NewHasher(
			WithIterations(cfg.Iterations),
			WithKeyLength(cfg.KeyLength),
			WithDigest(cfg.Digest),
		),
	}
	s.verify = s.Verify
	s.verifyReq = func(ctx context.Context, _ Request, username, password string) (*User, Info, error) {
		return s.verify(ctx, username, password)
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	store, err := resolveStore(cfg)
	if err != nil {
		return nil, err
	}
	s.store = store

	if err := s.store.EnsureSchema(ctx); err != nil {
		s.logger.Error("local strategy ensure schema error: %v", err)
		return nil, err
	}

	return s, nil
}

func resolveStore(cfg Config) (UserStore, error) {
	if cfg.Store != nil {
		return cfg.Store, nil
	}

	db := cfg.Connection
	if db == nil {
		var err error
		if db, err = OpenSQLite(""); err != nil {
			return nil, NewStoreError(err, "open default connection")
		}
	}

	return NewSQLUserStore(db, SchemaFromConfig(cfg)), nil
}

func (s *Strategy) Name() string {
	return s.name
}

// Config returns a copy of the resolved configuration
func (s *Strategy) Config() Config {
	return s.cfg
}

func (s *Strategy) Store() UserStore {
	return s.store
}

func (s *Strategy) Hasher() *Hasher {
	return s.hasher
}

// AuthenticateOption tunes a single Authenticate call
type AuthenticateOption func(*authenticateOptions)

type authenticateOptions struct {
	badRequestMessage string
}

// WithBadRequestMessage overrides the message reported for missing credentials
func WithBadRequestMessage(msg string) AuthenticateOption {
	return func(o *authenticateOptions) {
		o.badRequestMessage = msg
	}
}

// Authenticate runs Evaluate and reports the outcome to host
func (s *Strategy) Authenticate(ctx context.Context, req Request, host Host, opts ...AuthenticateOption) {
	s.Evaluate(ctx, req, opts...).Dispatch(host)
}

// Evaluate extracts the credentials from req, verifies them and returns
// the outcome.
func (s *Strategy) Evaluate(ctx context.Context, req Request, opts ...AuthenticateOption) Outcome {
	o := &authenticateOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	username, password, ok := ExtractCredentials(req, s.cfg.UsernameField, s.cfg.PasswordField)
	if !ok {
		return s.finish(ctx, username, Fail(missingCredentials(o.badRequestMessage)))
	}

	var (
		user *User
		info Info
		err  error
	)

	if s.cfg.PassReqToCallback {
		user, info, err = s.verifyReq(ctx, req, username, password)
	} else {
		user, info, err = s.verify(ctx, username, password)
	}

	switch {
	case err != nil:
		return s.finish(ctx, username, Error(err))
	case user == nil:
		return s.finish(ctx, username, Fail(info))
	default:
		return s.finish(ctx, username, Success(user, info))
	}
}

// Verify looks up username and checks password against the stored hash.
// Invalid credentials come back as a nil user with info describing why.
func (s *Strategy) Verify(ctx context.Context, username, password string) (*User, Info, error) {
	user, err := s.store.FindOne(ctx, username)
	if err != nil {
		if IsNotFound(err) {
			return nil, Info{Message: MessageUserNotFound, Err: ErrUserNotFound}, nil
		}

		if s.cfg.FoldStoreErrors {
			return nil, Info{Message: err.Error(), Err: err}, nil
		}

		return nil, Info{}, asStoreError(err)
	}

	if user == nil {
		return nil, Info{Message: MessageUserNotFound, Err: ErrUserNotFound}, nil
	}

	derived, err := s.hasher.HashPassword(ctx, password, user.Salt)
	if err != nil {
		return nil, Info{}, NewHashingError(err)
	}

	if subtle.ConstantTimeCompare([]byte(derived), []byte(user.PasswordHash)) != 1 {
		return nil, Info{Message: MessageBadPassword, Err: ErrBadPassword}, nil
	}

	return user, Info{}, nil
}

// CreateUser salts and hashes password and persists a new user. The user
// is returned only once the store confirmed the write.
func (s *Strategy) CreateUser(ctx context.Context, username, password string) (*User, error) {
	if username == "" || password == "" {
		return nil, ErrNoEmptyString
	}

	salt, err := s.GenerateSalt(s.cfg.SaltLength)
	if err != nil {
		return nil, err
	}

	hash, err := s.HashPassword(ctx, password, salt)
	if err != nil {
		return nil, NewHashingError(err)
	}

	user := &User{
		Username:     username,
		PasswordHash: hash,
		Salt:         salt,
	}

	if err := s.store.Save(ctx, user); err != nil {
		s.logger.Error("create user %q save error: %v", username, err)
		return nil, err
	}

	s.emit(ctx, ActivityEventUserCreated, username, nil)

	return user, nil
}

// GenerateSalt returns a random salt of the given length
func (s *Strategy) GenerateSalt(length int) (string, error) {
	return GenerateSalt(length)
}

// HashPassword derives the hash of password with salt using the strategy
// hasher settings.
func (s *Strategy) HashPassword(ctx context.Context, password, salt string) (string, error) {
	return s.hasher.HashPassword(ctx, password, salt)
}

func (s *Strategy) finish(ctx context.Context, username string, o Outcome) Outcome {
	meta := map[string]any{}

	switch o.Kind {
	case OutcomeSuccess:
		s.logger.Debug("authenticate %q succeeded", username)
	case OutcomeFail:
		s.logger.Info("authenticate %q failed: %s", username, o.Info.Message)
		meta["message"] = o.Info.Message
	default:
		s.logger.Error("authenticate %q error: %v", username, o.Err)
		if o.Err != nil {
			meta["error"] = o.Err.Error()
		}
	}

	s.emit(ctx, outcomeEventType(o), username, meta)

	return o
}

func (s *Strategy) emit(ctx context.Context, eventType ActivityEventType, username string, metadata map[string]any) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["attempt_id"] = uuid.NewString()

	event := ActivityEvent{
		EventType:  eventType,
		Strategy:   s.name,
		Username:   username,
		Metadata:   metadata,
		OccurredAt: time.Now(),
	}

	if err := normalizeActivitySink(s.activitySink).Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error: %v", err)
	}
}

func missingCredentials(msg string) Info {
	if msg == "" || msg == MessageMissingCredentials {
		return Info{Message: MessageMissingCredentials, Err: ErrMissingCredentials}
	}

	err := ErrMissingCredentials.Clone()
	err.Message = msg
	return Info{Message: msg, Err: err}
}

func asStoreError(err error) error {
	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.TextCode == TextCodeStoreFailure {
		return richErr
	}
	return NewStoreError(err, "find")
}
