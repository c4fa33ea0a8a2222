package post

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/minimall/minimall/internal/httpx"
)

func writeErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrCommentNotFound):
		httpx.NotFound(c, err.Error())
	case errors.Is(err, ErrNotCommentOwner):
		httpx.Forbidden(c, err.Error())
	case errors.Is(err, ErrParentNotFound):
		httpx.BadRequest(c, err.Error())
	default:
		httpx.ServerError(c, err, gin.Mode() != gin.ReleaseMode)
	}
}

type createRequest struct {
	Content string   `json:"content" binding:"required,max=2000"`
	Images  []string `json:"images" binding:"max=9"`
}

type commentRequest struct {
	Content  string `json:"content" binding:"required,max=500"`
	ParentID string `json:"parentId"`
}

// FeedHandler godoc
// @Summary List approved posts
// @Tags posts
// @Success 200 {object} httpx.Envelope
// @Router /posts [get]
func FeedHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := httpx.PageQuery(c)
		posts, total, err := svc.Feed(c.Request.Context(), httpx.UserID(c), page, pageSize)
		if err != nil {
			writeErr(c, err)
			return
		}
		httpx.Paginated(c, posts, total, page, pageSize)
	}
}

func MyPostsHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := httpx.PageQuery(c)
		posts, total, err := svc.MyPosts(c.Request.Context(), httpx.UserID(c), page, pageSize)
		if err != nil {
			writeErr(c, err)
			return
		}
		httpx.Paginated(c, posts, total, page, pageSize)
	}
}

func GetHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := svc.Get(c.Request.Context(), httpx.UserID(c), c.Param("id"))
		if err != nil {
			writeErr(c, err)
			return
		}
		httpx.OK(c, p)
	}
}

func CreateHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "参数验证失败")
			return
		}
		p, err := svc.Create(c.Request.Context(), httpx.UserID(c), req.Content, req.Images)
		if err != nil {
			writeErr(c, err)
			return
		}
		httpx.Created(c, p)
	}
}

func ToggleLikeHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		liked, err := svc.ToggleLike(c.Request.Context(), httpx.UserID(c), c.Param("id"))
		if err != nil {
			writeErr(c, err)
			return
		}
		httpx.OK(c, gin.H{"liked": liked})
	}
}

func CommentListHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := httpx.PageQuery(c)
		comments, total, err := svc.Comments(c.Request.Context(), c.Param("id"), page, pageSize)
		if err != nil {
			writeErr(c, err)
			return
		}
		httpx.Paginated(c, comments, total, page, pageSize)
	}
}

func CommentCreateHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req commentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "参数验证失败")
			return
		}
		cm, err := svc.AddComment(c.Request.Context(), httpx.UserID(c), c.Param("id"),
			req.ParentID, req.Content)
		if err != nil {
			writeErr(c, err)
			return
		}
		httpx.Created(c, cm)
	}
}

// Admin review surface.

func ReviewListHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := httpx.PageQuery(c)
		posts, total, err := svc.ListForReview(c.Request.Context(), c.Query("status"), page, pageSize)
		if err != nil {
			writeErr(c, err)
			return
		}
		httpx.Paginated(c, posts, total, page, pageSize)
	}
}

func ReviewHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Status string `json:"status" binding:"required,oneof=APPROVED REJECTED"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "参数验证失败")
			return
		}
		if err := svc.Review(c.Request.Context(), c.Param("id"), req.Status); err != nil {
			writeErr(c, err)
			return
		}
		httpx.OK(c, nil)
	}
}

func RemoveHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Remove(c.Request.Context(), c.Param("id")); err != nil {
			writeErr(c, err)
			return
		}
		httpx.OK(c, nil)
	}
}

func CommentDeleteHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.DeleteComment(c.Request.Context(), httpx.UserID(c), c.Param("commentId")); err != nil {
			writeErr(c, err)
			return
		}
		httpx.OK(c, nil)
	}
}
