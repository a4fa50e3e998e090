package http

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"kamisado/internal/server/core"
	"kamisado/internal/server/game"
	"kamisado/internal/server/processor"
	"kamisado/internal/server/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const rateLimitRate = 10 // req/sec

// HTTPHandler handles HTTP requests and routes them to the processor
type HTTPHandler struct {
	proc *processor.Processor
	svc  *service.Service
}

func NewHTTPHandler(proc *processor.Processor, svc *service.Service) *HTTPHandler {
	return &HTTPHandler{proc: proc, svc: svc}
}

func rateLimited(max int, window time.Duration, details string, key func(*fiber.Ctx) string) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:          max,
		Expiration:   window,
		KeyGenerator: key,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(core.ErrorResponse{
				Error:   "rate limit exceeded",
				Code:    core.ErrRateLimitExceeded,
				Details: details,
			})
		},
	})
}

// clientIP prefers the first X-Forwarded-For hop
func clientIP(c *fiber.Ctx) string {
	if xff := c.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return xff
	}
	return c.IP()
}

func NewFiberApp(proc *processor.Processor, svc *service.Service, devMode bool) *fiber.App {
	h := NewHTTPHandler(proc, svc)

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: service.WaitTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	})

	// Global middleware (order matters)
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	app.Get("/health", h.Health)

	api := app.Group("/api/v1")
	validateToken := TokenValidator(svc.ValidateToken)

	auth := api.Group("/auth")
	auth.Post("/register", rateLimited(5, time.Minute, "5 registrations per minute allowed", clientIP), h.RegisterHandler)
	auth.Post("/login", rateLimited(10, time.Minute, "10 login attempts per minute allowed", clientIP), h.LoginHandler)
	auth.Get("/me", AuthRequired(validateToken), h.GetCurrentUserHandler)
	auth.Post("/logout", AuthRequired(validateToken), h.LogoutHandler)

	maxReq := rateLimitRate
	if devMode {
		maxReq = rateLimitRate * 2
	}
	games := api.Group("/games")
	games.Use(rateLimited(maxReq, time.Second, fmt.Sprintf("%d requests per second allowed", maxReq), clientIP))
	games.Use(contentTypeValidator)
	games.Use(validationMiddleware)

	games.Post("", OptionalAuth(validateToken), h.CreateGame)
	games.Put("/:gameId/players", OptionalAuth(validateToken), h.ConfigurePlayers)
	games.Get("/:gameId", h.GetGame)
	games.Delete("/:gameId", OptionalAuth(validateToken), h.DeleteGame)
	games.Post("/:gameId/select", OptionalAuth(validateToken), h.SelectOpening)
	games.Post("/:gameId/moves", OptionalAuth(validateToken), h.MakeMove)
	games.Post("/:gameId/computer", OptionalAuth(validateToken), h.ComputerMove)
	games.Post("/:gameId/undo", OptionalAuth(validateToken), h.UndoMove)
	games.Get("/:gameId/board", h.GetBoard)

	return app
}

// statusFor maps processor error codes to HTTP status codes
func statusFor(code string) int {
	switch code {
	case core.ErrGameNotFound:
		return fiber.StatusNotFound
	case core.ErrUnauthorized:
		return fiber.StatusForbidden
	case core.ErrResourceLimit:
		return fiber.StatusServiceUnavailable
	case core.ErrInternalError:
		return fiber.StatusInternalServerError
	case core.ErrGameOver, core.ErrNotHumanTurn:
		return fiber.StatusConflict
	default:
		return fiber.StatusBadRequest
	}
}

// reply writes a processor response with the given success status
func reply(c *fiber.Ctx, resp processor.ProcessorResponse, okStatus int) error {
	if !resp.Success {
		return c.Status(statusFor(resp.Error.Code)).JSON(resp.Error)
	}
	if resp.Data == nil {
		return c.SendStatus(okStatus)
	}
	return c.Status(okStatus).JSON(resp.Data)
}

// gameID returns the validated :gameId parameter
func gameID(c *fiber.Ctx) (string, error) {
	id := c.Params("gameId")
	if !isValidUUID(id) {
		return "", c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "invalid game ID format",
			Code:    core.ErrInvalidRequest,
			Details: "game ID must be a valid UUID",
		})
	}
	return id, nil
}

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals("userID").(string)
	return id
}

// Health check endpoint with storage status
func (h *HTTPHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"time":    time.Now().Unix(),
		"storage": h.svc.GetStorageHealth(),
		"games":   h.svc.GameCount(),
	})
}

// CreateGame creates a game; human slots belong to the caller if authenticated
func (h *HTTPHandler) CreateGame(c *fiber.Ctx) error {
	req, err := validatedBody[core.CreateGameRequest](c)
	if err != nil {
		return err
	}

	cmd := processor.NewCreateGameCommand(req)
	cmd.UserID = userID(c)
	return reply(c, h.proc.Execute(cmd), fiber.StatusCreated)
}

func (h *HTTPHandler) ConfigurePlayers(c *fiber.Ctx) error {
	id, err := gameID(c)
	if id == "" {
		return err
	}
	req, err := validatedBody[core.ConfigurePlayersRequest](c)
	if err != nil {
		return err
	}

	cmd := processor.NewConfigurePlayersCommand(id, req)
	cmd.UserID = userID(c)
	return reply(c, h.proc.Execute(cmd), fiber.StatusOK)
}

// GetGame returns the game state. With wait=true it long-polls until the
// move count differs from moveCount, the wait times out or the game ends.
func (h *HTTPHandler) GetGame(c *fiber.Ctx) error {
	id, err := gameID(c)
	if id == "" {
		return err
	}

	if c.Query("wait", "false") != "true" {
		return reply(c, h.proc.Execute(processor.NewGetGameCommand(id)), fiber.StatusOK)
	}

	moveCount, err := strconv.Atoi(c.Query("moveCount", "-1"))
	if err != nil || moveCount < 0 {
		moveCount = -1
	}

	// Register before reading so a move landing in between still wakes us
	ctx, cancel := context.WithCancel(c.Context())
	defer cancel()
	notify := h.svc.RegisterWait(ctx, id, moveCount)

	current, pending := -1, false
	err = h.svc.View(id, func(g *game.Game) {
		current = len(g.History())
		pending = g.State() == core.StatePending
	})
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(core.ErrorResponse{
			Error: "game not found",
			Code:  core.ErrGameNotFound,
		})
	}

	if moveCount == current || pending {
		select {
		case <-notify:
		case <-c.Context().Done():
			return nil
		}
	}

	return reply(c, h.proc.Execute(processor.NewGetGameCommand(id)), fiber.StatusOK)
}

// SelectOpening picks White's opening piece by home-row column
func (h *HTTPHandler) SelectOpening(c *fiber.Ctx) error {
	id, err := gameID(c)
	if id == "" {
		return err
	}
	req, err := validatedBody[core.SelectRequest](c)
	if err != nil {
		return err
	}

	cmd := processor.NewSelectOpeningCommand(id, req)
	cmd.UserID = userID(c)
	return reply(c, h.proc.Execute(cmd), fiber.StatusOK)
}

// MakeMove moves the active piece to the requested cell
func (h *HTTPHandler) MakeMove(c *fiber.Ctx) error {
	id, err := gameID(c)
	if id == "" {
		return err
	}
	req, err := validatedBody[core.MoveRequest](c)
	if err != nil {
		return err
	}

	cmd := processor.NewMakeMoveCommand(id, req)
	cmd.UserID = userID(c)
	return reply(c, h.proc.Execute(cmd), fiber.StatusOK)
}

// ComputerMove queues a search for the computer side to move
func (h *HTTPHandler) ComputerMove(c *fiber.Ctx) error {
	id, err := gameID(c)
	if id == "" {
		return err
	}
	cmd := processor.NewComputerMoveCommand(id)
	cmd.UserID = userID(c)
	return reply(c, h.proc.Execute(cmd), fiber.StatusAccepted)
}

func (h *HTTPHandler) UndoMove(c *fiber.Ctx) error {
	id, err := gameID(c)
	if id == "" {
		return err
	}
	req, err := validatedBody[core.UndoRequest](c)
	if err != nil {
		return err
	}
	cmd := processor.NewUndoMoveCommand(id, req)
	cmd.UserID = userID(c)
	return reply(c, h.proc.Execute(cmd), fiber.StatusOK)
}

func (h *HTTPHandler) DeleteGame(c *fiber.Ctx) error {
	id, err := gameID(c)
	if id == "" {
		return err
	}
	cmd := processor.NewDeleteGameCommand(id)
	cmd.UserID = userID(c)
	return reply(c, h.proc.Execute(cmd), fiber.StatusNoContent)
}

// GetBoard returns the ASCII board with legal destinations marked
func (h *HTTPHandler) GetBoard(c *fiber.Ctx) error {
	id, err := gameID(c)
	if id == "" {
		return err
	}
	return reply(c, h.proc.Execute(processor.NewGetBoardCommand(id)), fiber.StatusOK)
}
