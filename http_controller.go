package readme

import (
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// SessionCreateRequest carries the external identity token exchanged for a
// session token.
type SessionCreateRequest struct {
	ExternalToken string `json:"externalToken"`
}

func (r SessionCreateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ExternalToken, validation.Required),
	)
}

// SessionCreateResponse is the issued session token.
type SessionCreateResponse struct {
	SessionToken string `json:"sessionToken"`
}

// BookPaymentSaveRequest lists the books bought in a single checkout.
type BookPaymentSaveRequest struct {
	BookIDs []int64 `json:"bookIds"`
}

func (r BookPaymentSaveRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.BookIDs, validation.Required, validation.Length(1, 0)),
	)
}

// BookPaymentSaveResponse reports the payment number shared by the batch.
type BookPaymentSaveResponse struct {
	PaymentNumber int64 `json:"paymentNumber"`
}

// MembershipActivateRequest selects the plan to activate.
type MembershipActivateRequest struct {
	PlanID    int64 `json:"planId"`
	AutoRenew bool  `json:"autoRenew"`
}

func (r MembershipActivateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.PlanID, validation.Required, validation.Min(1)),
	)
}

// MyPaymentsResponse aggregates both purchase ledgers for an account.
type MyPaymentsResponse struct {
	BookPayments       []*BookPayment       `json:"bookPayments"`
	MembershipPayments []*MembershipPayment `json:"membershipPayments"`
}

// SessionController exchanges verified external identities for session
// tokens.
type SessionController struct {
	Bridge *IdentityBridge
	Logger Logger
}

func NewSessionController(bridge *IdentityBridge) *SessionController {
	return &SessionController{
		Bridge: bridge,
		Logger: defLogger{},
	}
}

func (s *SessionController) WithLogger(logger Logger) *SessionController {
	s.Logger = logger
	return s
}

// Create handles POST /sessions.
func (s *SessionController) Create(c *fiber.Ctx) error {
	var req SessionCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return WriteError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid request body"))
	}

	if err := req.Validate(); err != nil {
		return WriteError(c, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid session request"))
	}

	token, err := s.Bridge.Exchange(c.Context(), req.ExternalToken)
	if err != nil {
		s.Logger.Warn("session exchange failed: %v", err)
		return WriteError(c, err)
	}

	return c.JSON(SessionCreateResponse{SessionToken: token})
}

// PaymentController serves the payment ledger and membership lifecycle
// endpoints. Every route requires an authenticated session.
type PaymentController struct {
	Repo       RepositoryManager
	Ledger     *PaymentLedger
	Membership *MembershipLifecycle
	ContextKey string
	Logger     Logger
}

func NewPaymentController(repo RepositoryManager, ledger *PaymentLedger, membership *MembershipLifecycle, contextKey string) *PaymentController {
	return &PaymentController{
		Repo:       repo,
		Ledger:     ledger,
		Membership: membership,
		ContextKey: contextKey,
		Logger:     defLogger{},
	}
}

func (p *PaymentController) WithLogger(logger Logger) *PaymentController {
	p.Logger = logger
	return p
}

// ListMine handles GET /payments/my.
func (p *PaymentController) ListMine(c *fiber.Ctx) error {
	user, err := CurrentUser(c, p.ContextKey, p.Repo)
	if err != nil {
		return WriteError(c, err)
	}

	books, err := p.Ledger.ListMine(c.Context(), user)
	if err != nil {
		return WriteError(c, err)
	}

	memberships, err := p.Membership.ListMine(c.Context(), user)
	if err != nil {
		return WriteError(c, err)
	}

	return c.JSON(MyPaymentsResponse{
		BookPayments:       books,
		MembershipPayments: memberships,
	})
}

// GetMembership handles GET /payments/membership/:id.
func (p *PaymentController) GetMembership(c *fiber.Ctx) error {
	user, err := CurrentUser(c, p.ContextKey, p.Repo)
	if err != nil {
		return WriteError(c, err)
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return WriteError(c, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid membership payment id"))
	}

	payment, err := p.Membership.GetActiveForAccount(c.Context(), user, id)
	if err != nil {
		return WriteError(c, err)
	}

	return c.JSON(payment)
}

// ListBooksByNumber handles GET /payments/books/:paymentNo.
func (p *PaymentController) ListBooksByNumber(c *fiber.Ctx) error {
	user, err := CurrentUser(c, p.ContextKey, p.Repo)
	if err != nil {
		return WriteError(c, err)
	}

	paymentNo, err := strconv.ParseInt(c.Params("paymentNo"), 10, 64)
	if err != nil {
		return WriteError(c, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid payment number"))
	}

	lines, err := p.Ledger.ListByPaymentNumber(c.Context(), user, paymentNo)
	if err != nil {
		return WriteError(c, err)
	}

	return c.JSON(lines)
}

// CreateBookPayment handles POST /payments/book.
func (p *PaymentController) CreateBookPayment(c *fiber.Ctx) error {
	user, err := CurrentUser(c, p.ContextKey, p.Repo)
	if err != nil {
		return WriteError(c, err)
	}

	var req BookPaymentSaveRequest
	if err := c.BodyParser(&req); err != nil {
		return WriteError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid request body"))
	}

	if err := req.Validate(); err != nil {
		return WriteError(c, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid book payment request"))
	}

	paymentNo, err := p.Ledger.CreateBookPaymentBatch(c.Context(), user, req.BookIDs)
	if err != nil {
		return WriteError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(BookPaymentSaveResponse{PaymentNumber: paymentNo})
}

// ActivateMembership handles POST /payments/membership.
func (p *PaymentController) ActivateMembership(c *fiber.Ctx) error {
	user, err := CurrentUser(c, p.ContextKey, p.Repo)
	if err != nil {
		return WriteError(c, err)
	}

	var req MembershipActivateRequest
	if err := c.BodyParser(&req); err != nil {
		return WriteError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid request body"))
	}

	if err := req.Validate(); err != nil {
		return WriteError(c, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid membership request"))
	}

	payment, err := p.Membership.Activate(c.Context(), user, req.PlanID, req.AutoRenew)
	if err != nil {
		return WriteError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(payment)
}

// CancelMembership handles DELETE /payments/:id/membership.
func (p *PaymentController) CancelMembership(c *fiber.Ctx) error {
	user, err := CurrentUser(c, p.ContextKey, p.Repo)
	if err != nil {
		return WriteError(c, err)
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return WriteError(c, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid membership payment id"))
	}

	if err := p.Membership.Cancel(c.Context(), user, id); err != nil {
		return WriteError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// RegisterRoutes mounts the public session endpoint and the protected
// payment group on the app.
func RegisterRoutes(app *fiber.App, sessions *SessionController, payments *PaymentController, authware fiber.Handler) {
	app.Post("/sessions", sessions.Create)

	group := app.Group("/payments", authware)
	group.Get("/my", payments.ListMine)
	group.Get("/membership/:id", payments.GetMembership)
	group.Get("/books/:paymentNo", payments.ListBooksByNumber)
	group.Post("/book", payments.CreateBookPayment)
	group.Post("/membership", payments.ActivateMembership)
	group.Delete("/:id/membership", payments.CancelMembership)
}
