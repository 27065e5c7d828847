package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/elee1766/finchat/src/findata"
	"github.com/elee1766/finchat/src/server/response"
)

const maxSnapshotTickers = 20

var (
	errTooManyTickers = errors.New("too many tickers")
	errInvalidTicker  = errors.New("invalid ticker")

	tickerPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-]{0,9}$`)
)

// MarketHandler serves the ticker strip. Snapshots go through a shared
// cache so every client polling it costs one upstream call per TTL.
type MarketHandler struct {
	snapshots findata.SnapshotFetcher
	validate  *validator.Validate
	timeout   time.Duration
	log       *slog.Logger
}

func NewMarketHandler(snapshots findata.SnapshotFetcher, log *slog.Logger) *MarketHandler {
	v := validator.New()
	v.RegisterValidation("ticker", func(fl validator.FieldLevel) bool {
		return tickerPattern.MatchString(fl.Field().String())
	})
	return &MarketHandler{
		snapshots: snapshots,
		validate:  v,
		timeout:   15 * time.Second,
		log:       log.With("handler", "market"),
	}
}

// Snapshots handles GET /market/snapshots?tickers=AAPL,MSFT. Results keep
// the requested order; a ticker that fails carries its error.
func (h *MarketHandler) Snapshots(c *gin.Context) {
	tickers := parseTickers(c.Query("tickers"))
	if len(tickers) == 0 {
		tickers = findata.DefaultTickers
	}
	if len(tickers) > maxSnapshotTickers {
		response.RespondError(c, http.StatusBadRequest, response.CodeBadRequest, errTooManyTickers)
		return
	}
	if err := h.validate.Var(tickers, "dive,ticker"); err != nil {
		response.RespondError(c, http.StatusBadRequest, response.CodeBadRequest, errInvalidTicker)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()
	results, err := findata.PrefetchSnapshots(ctx, h.snapshots, tickers)
	if err != nil {
		_ = c.Error(err)
		response.RespondError(c, http.StatusGatewayTimeout, response.CodeInternal, errors.New("market data request timed out"))
		return
	}
	response.RespondOK(c, gin.H{"snapshots": results})
}

func parseTickers(raw string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, t := range strings.Split(raw, ",") {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
