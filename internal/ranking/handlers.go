package ranking

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/minimall/minimall/internal/httpx"
)

// BoardHandler serves /rankings/:type.
func BoardHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := svc.Board(c.Request.Context(), c.Param("type"))
		if err != nil {
			if errors.Is(err, ErrUnknownBoard) {
				httpx.BadRequest(c, err.Error())
				return
			}
			httpx.ServerError(c, err, gin.Mode() != gin.ReleaseMode)
			return
		}
		httpx.OK(c, entries)
	}
}
