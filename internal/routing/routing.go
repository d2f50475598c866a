package routing

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"communityboard/internal/sqldb"
	"communityboard/pkg/apperr"
	"communityboard/pkg/auth"
	"communityboard/pkg/comment"
	"communityboard/pkg/engagement"
	"communityboard/pkg/handlers"
	"communityboard/pkg/middleware"
	"communityboard/pkg/post"
	"communityboard/pkg/session"
	"communityboard/pkg/user"
)

const idPattern = "[0-9a-zA-Z-]+"

type Deps struct {
	DB           *sql.DB
	Dialect      sqldb.Dialect
	Sessions     *session.Manager
	LoginLimiter *middleware.RateLimiter
	Passwords    user.CredentialChecker
	Logger       *zap.SugaredLogger
}

func NewRouter(d Deps) *mux.Router {
	if d.Passwords == nil {
		d.Passwords = user.BcryptChecker{}
	}

	users := user.NewMySQLRepo(d.DB)
	posts := post.NewMySQLRepo(d.DB)
	identity := auth.NewResolver(users)
	eng := engagement.NewService(d.DB, d.Dialect)

	userHandler := handlers.NewUserHandler(user.NewService(users, d.Passwords), identity, d.Logger)
	userHandler.Sessions = d.Sessions
	postHandler := handlers.NewPostHandler(post.NewService(posts), eng, identity, d.Logger)
	commentHandler := handlers.NewCommentHandler(comment.NewService(comment.NewMySQLRepo(d.DB), posts), eng, identity, d.Logger)

	r := mux.NewRouter()
	r.Use(middleware.RequestID, middleware.AccessLog(d.Logger), middleware.Panic(d.Logger), d.Sessions.Middleware)
	r.NotFoundHandler = fallback(d.Logger, apperr.ErrNotFound)
	r.MethodNotAllowedHandler = fallback(d.Logger, errMethodNotAllowed)

	api := r.PathPrefix("/v1").Subrouter()

	/* auth routers */
	authRouter := api.PathPrefix("/auth").Subrouter()
	throttled := authRouter.NewRoute().Subrouter()
	if d.LoginLimiter != nil {
		throttled.Use(d.LoginLimiter.Middleware(d.Logger))
	}
	throttled.HandleFunc("/signup", userHandler.Signup).Methods("POST").Name("signup")
	throttled.HandleFunc("/login", userHandler.Login).Methods("POST").Name("login")
	authRouter.HandleFunc("/logout", userHandler.Logout).Methods("POST").Name("logout")
	authRouter.HandleFunc("/me", userHandler.Me).Methods("GET").Name("me")

	/* user routers */
	// literal paths are registered first so "me" and "password" never reach {user_id}
	userPath := "/users/{user_id:" + idPattern + "}"
	api.HandleFunc("/users/me", userHandler.Me).Methods("GET")
	api.HandleFunc("/users/me", userHandler.UpdateUser).Methods("PATCH")
	api.HandleFunc("/users/me", userHandler.DeleteUser).Methods("DELETE")
	api.HandleFunc("/users/password", userHandler.ChangePassword).Methods("PATCH")
	api.HandleFunc(userPath, userHandler.GetUser).Methods("GET")
	api.HandleFunc(userPath, userHandler.UpdateUser).Methods("PATCH")
	api.HandleFunc(userPath, userHandler.DeleteUser).Methods("DELETE")
	api.HandleFunc(userPath+"/password", userHandler.ChangePassword).Methods("PATCH")

	/* posts routers */
	postPath := "/posts/{post_id:" + idPattern + "}"
	api.HandleFunc("/posts", postHandler.GetAllPosts).Methods("GET")
	api.HandleFunc("/posts", postHandler.CreatePost).Methods("POST")
	api.HandleFunc(postPath, postHandler.GetPostByID).Methods("GET")
	api.HandleFunc(postPath, postHandler.UpdatePost).Methods("PATCH")
	api.HandleFunc(postPath, postHandler.DeletePost).Methods("DELETE")
	api.HandleFunc(postPath+"/likes", postHandler.ToggleLike).Methods("POST")

	/* comment routers */
	commentPath := postPath + "/comments/{comment_id:" + idPattern + "}"
	api.HandleFunc(postPath+"/comments", commentHandler.List).Methods("GET")
	api.HandleFunc(postPath+"/comments", commentHandler.Create).Methods("POST")
	api.HandleFunc(commentPath, commentHandler.Update).Methods("PATCH")
	api.HandleFunc(commentPath, commentHandler.Delete).Methods("DELETE")

	return r
}

var errMethodNotAllowed = errors.New("method not allowed")

// fallback answers unmatched requests with the JSON envelope. mux skips
// router middleware for these, so the chain is applied here.
func fallback(logger *zap.SugaredLogger, err error) http.Handler {
	status, code := apperr.Status(err), apperr.Code(err)
	if errors.Is(err, errMethodNotAllowed) {
		status, code = http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"
	}
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if _, err := w.Write([]byte(`{"code":"` + code + `","message":"","details":{}}`)); err != nil {
			logger.Errorw("failed to write fallback JSON", "path", r.URL.Path, "error", err)
		}
	})
	return middleware.RequestID(middleware.AccessLog(logger)(h))
}

// Serve runs the server until ctx is cancelled, then drains in-flight
// requests for up to shutdownTimeout.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *zap.SugaredLogger) error {
	const shutdownTimeout = 10 * time.Second

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("the server is running", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.Infow("shutting down", "addr", addr)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
