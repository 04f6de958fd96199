package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Dan9191/finance-tracker/internal/middleware"
	"github.com/Dan9191/finance-tracker/internal/models"
	"github.com/Dan9191/finance-tracker/internal/service"
	"github.com/Dan9191/finance-tracker/internal/utils"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const (
	maxBodyBytes   = 1 << 20
	maxImportBytes = 10 << 20
)

type Handler struct {
	svc *service.Service
	log *logrus.Logger
}

func NewHandler(svc *service.Service, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Routes registers the API on r. protect guards every endpoint that needs a principal.
func (h *Handler) Routes(r *mux.Router, protect mux.MiddlewareFunc) {
	r.HandleFunc("/healthz", h.Health).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	// Public routes
	api.HandleFunc("/register", h.Register).Methods("POST")
	api.HandleFunc("/login", h.Login).Methods("POST")

	// Protected routes
	authRouter := api.PathPrefix("/").Subrouter()
	authRouter.Use(protect)
	authRouter.HandleFunc("/user", h.CurrentUser).Methods("GET")
	authRouter.HandleFunc("/transactions", h.ListTransactions).Methods("GET")
	authRouter.HandleFunc("/transactions", h.CreateTransaction).Methods("POST")
	authRouter.HandleFunc("/transactions/summary", h.Summary).Methods("GET")
	authRouter.HandleFunc("/transactions/import", h.ImportTransactions).Methods("POST")
	authRouter.HandleFunc("/transactions/import/csv", h.ImportCSV).Methods("POST")
	authRouter.HandleFunc("/transactions/{id}", h.GetTransaction).Methods("GET")
	authRouter.HandleFunc("/transactions/{id}", h.UpdateTransaction).Methods("PATCH", "PUT")
	authRouter.HandleFunc("/transactions/{id}", h.DeleteTransaction).Methods("DELETE")
}

// Health reports liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// principal returns the authenticated principal or answers 401
func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (models.Principal, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Not authenticated")
	}
	return p, ok
}

// writeServiceError maps service errors to responses. Unknown errors are
// logged and answered with the generic message for the action.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	var verr *models.ValidationError
	switch {
	case errors.Is(err, service.ErrInvalidImport):
		utils.WriteError(w, http.StatusBadRequest, "Invalid CSV data")
	case errors.Is(err, service.ErrDuplicateImport):
		utils.WriteError(w, http.StatusConflict, "Transaction already imported")
	case errors.As(err, &verr):
		utils.WriteError(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, service.ErrTransactionNotFound):
		utils.WriteError(w, http.StatusNotFound, "Transaction not found")
	case errors.Is(err, service.ErrNotAuthorized):
		utils.WriteError(w, http.StatusForbidden, "Not authorized")
	case errors.Is(err, service.ErrUserNotFound):
		utils.WriteError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, service.ErrUsernameTaken):
		utils.WriteError(w, http.StatusConflict, "Username already exists")
	case errors.Is(err, service.ErrEmailTaken):
		utils.WriteError(w, http.StatusConflict, "Email already exists")
	case errors.Is(err, service.ErrUserExists):
		utils.WriteError(w, http.StatusConflict, "User already exists")
	case errors.Is(err, service.ErrInvalidCredentials):
		utils.WriteError(w, http.StatusUnauthorized, "Invalid credentials")
	default:
		h.log.WithError(err).Errorf("%s %s: %s", r.Method, r.URL.Path, action)
		utils.WriteError(w, http.StatusInternalServerError, action)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	return json.NewDecoder(r.Body).Decode(v)
}

// fieldTypeMessages are the validation messages for transaction fields sent
// with the wrong JSON type
var fieldTypeMessages = map[string]string{
	"description": "description is required",
	"date":        "invalid date format",
	"type":        "invalid transaction type",
	"endDate":     "invalid date format",
	"nextDueDate": "invalid date format",
	"budgetMonth": "invalid budget month",
	"frequency":   "invalid frequency",
}

// transactionBodyError returns the message for a transaction body that failed
// to decode. A wrongly typed field reports the same message validation would.
func transactionBodyError(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if msg, ok := fieldTypeMessages[typeErr.Field]; ok {
			return msg
		}
	}
	return "Invalid request body"
}

func transactionID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id, err == nil && id > 0
}
