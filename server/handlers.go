package server

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/witanlabs/gridcalc/formula"
	"github.com/witanlabs/gridcalc/grid"
	"github.com/witanlabs/gridcalc/internal"
)

type errorBody struct {
	Error string `json:"error"`
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": s.SessionCount()})
}

type evaluateRequest struct {
	Formula string     `json:"formula" binding:"required"`
	Rows    [][]string `json:"rows"`
}

type evaluateResponse struct {
	Value   string                `json:"value"`
	Kind    string                `json:"kind"`
	Rows    [][]string            `json:"rows,omitempty"`
	Changed []internal.CellChange `json:"changed,omitempty"`
}

// evaluate evaluates a formula against the posted rows. Nothing is kept
// between calls.
func (s *Server) evaluate(c *gin.Context) {
	var req evaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	g := grid.FromRows(req.Rows)
	v, replacement := formula.Evaluate(req.Formula, g)
	resp := evaluateResponse{Value: v.String(), Kind: v.Kind.String()}
	if replacement != nil {
		changes, err := internal.DiffGrids(g, *replacement)
		if err != nil {
			c.JSON(http.StatusInternalServerError, errorBody{Error: err.Error()})
			return
		}
		resp.Rows = replacement.Snapshot()
		resp.Changed = changes
	}
	c.JSON(http.StatusOK, resp)
}

type adjustRequest struct {
	Formula  string `json:"formula" binding:"required"`
	RowDelta int    `json:"row_delta"`
	ColDelta int    `json:"col_delta"`
}

func (s *Server) adjust(c *gin.Context) {
	var req adjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"formula": formula.Adjust(req.Formula, req.RowDelta, req.ColDelta)})
}

func (s *Server) references(c *gin.Context) {
	var req struct {
		Formula string `json:"formula" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	refs := formula.References(req.Formula)
	if refs == nil {
		refs = []grid.Range{}
	}
	c.JSON(http.StatusOK, gin.H{"refs": refs})
}

// column converts a 0-based index to letters, or letters to an index.
func (s *Server) column(c *gin.Context) {
	param := c.Param("index")
	if n, err := strconv.Atoi(param); err == nil {
		if n < 0 {
			badRequest(c, errors.New("column index must not be negative"))
			return
		}
		c.JSON(http.StatusOK, gin.H{"index": n, "name": grid.ColumnIndexToName(n)})
		return
	}
	n, err := grid.ColumnNameToIndex(param)
	if err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"index": n, "name": grid.ColumnIndexToName(n)})
}

// handleWebsocket runs one session for the lifetime of the connection.
func (s *Server) handleWebsocket(c *gin.Context) {
	if origin := c.GetHeader("Origin"); origin != "" && !s.sameHost(origin, c.Request) && !s.originAllowed(origin) {
		c.JSON(http.StatusForbidden, errorBody{Error: "origin not allowed"})
		return
	}
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		// origins are checked above against full origins, not host patterns
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Warn().Err(err).Msg("websocket accept failed")
		return
	}
	conn.SetReadLimit(s.cfg.MaxMessageBytes)

	sess := s.openSession()
	defer s.closeSession(sess)
	logger := log.With().Str("session", sess.ID.String()).Logger()

	ctx := c.Request.Context()
	if err := wsjson.Write(ctx, conn, sess.Greeting()); err != nil {
		logger.Warn().Err(err).Msg("sending greeting")
		conn.Close(websocket.StatusInternalError, "greeting failed")
		return
	}

	for {
		var req Request
		if err := wsjson.Read(ctx, conn, &req); err != nil {
			switch status := websocket.CloseStatus(err); {
			case status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway:
				logger.Debug().Msg("client closed session")
			case errors.Is(err, context.Canceled):
				conn.Close(websocket.StatusGoingAway, "server shutting down")
			default:
				logger.Warn().Err(err).Msg("reading request")
				conn.Close(websocket.StatusProtocolError, "bad request")
			}
			return
		}
		reply := sess.Handle(req)
		ev := logger.Debug()
		if !reply.OK {
			ev = logger.Info().Str("error", reply.Error)
		}
		ev.Int64("id", req.ID).Str("op", req.Op).Msg("handled")
		if err := wsjson.Write(ctx, conn, reply); err != nil {
			logger.Warn().Err(err).Msg("writing reply")
			return
		}
	}
}

func (s *Server) sameHost(origin string, r *http.Request) bool {
	u, err := url.Parse(origin)
	return err == nil && u.Host == r.Host
}
