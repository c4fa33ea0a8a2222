package user

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/minimall/minimall/internal/auth"
	"github.com/minimall/minimall/internal/httpx"
)

func writeErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrAddressNotFound):
		httpx.NotFound(c, err.Error())
	case errors.Is(err, ErrBadCredentials), errors.Is(err, ErrAccountDisabled):
		httpx.Unauthorized(c, err.Error())
	case errors.Is(err, auth.ErrInvalidToken):
		httpx.Unauthorized(c, "Token无效")
	case errors.Is(err, auth.ErrExpiredToken):
		httpx.Unauthorized(c, "Token已过期")
	case errors.Is(err, ErrPhoneTaken), errors.Is(err, ErrWrongOldPassword),
		errors.Is(err, ErrAlreadyFavorite), errors.Is(err, ErrNotFavorite),
		errors.Is(err, ErrFollowSelf), errors.Is(err, ErrAlreadyFollowing),
		errors.Is(err, ErrNotFollowing), errors.Is(err, auth.ErrPasswordTooShort):
		httpx.BadRequest(c, err.Error())
	default:
		httpx.ServerError(c, err, gin.Mode() != gin.ReleaseMode)
	}
}

type sendCodeRequest struct {
	Phone string `json:"phone" binding:"required,len=11"`
}

type registerRequest struct {
	Phone    string `json:"phone" binding:"required,len=11"`
	Password string `json:"password" binding:"required,min=6"`
	Code     string `json:"code" binding:"required"`
	Nickname string `json:"nickname"`
}

type loginRequest struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}

type addressRequest struct {
	ReceiverName  string `json:"receiverName" binding:"required"`
	ReceiverPhone string `json:"receiverPhone" binding:"required"`
	Province      string `json:"province" binding:"required"`
	City          string `json:"city" binding:"required"`
	District      string `json:"district" binding:"required"`
	DetailAddress string `json:"detailAddress" binding:"required"`
	IsDefault     bool   `json:"isDefault"`
}

func SendCodeHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req sendCodeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "参数验证失败")
			return
		}
		svc.SendCode(req.Phone)
		httpx.OK(c, gin.H{"sent": true})
	}
}

// RegisterHandler godoc
// @Summary Register with phone and password
// @Tags auth
// @Accept json
// @Success 201 {object} httpx.Envelope
// @Router /auth/register [post]
func RegisterHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "参数验证失败")
			return
		}
		u, pair, err := svc.Register(c.Request.Context(), req.Phone, req.Password, req.Nickname)
		if err != nil {
			writeErr(c, err)
			return
		}
		httpx.Created(c, gin.H{
			"user":         gin.H{"id": u.ID, "phone": u.MaskedPhone(), "nickname": u.Nickname},
			"accessToken":  pair.AccessToken,
			"refreshToken": pair.RefreshToken,
		})
	}
}

func LoginHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "参数验证失败")
			return
		}
		u, pair, err := svc.Login(c.Request.Context(), req.Phone, req.Password)
		if err != nil {
			writeErr(c, err)
			return
		}
		httpx.OK(c, gin.H{
			"user":         gin.H{"id": u.ID, "phone": u.MaskedPhone(), "nickname": u.Nickname, "avatar": u.Avatar},
			"accessToken":  pair.AccessToken,
			"refreshToken": pair.RefreshToken,
		})
	}
}

func RefreshHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "参数验证失败")
			return
		}
		pair, err := svc.Refresh(c.Request.Context(), req.RefreshToken)
		if err != nil {
			writeErr(c, err)
			return
		}
		httpx.OK(c, pair)
	}
}

func MeHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := svc.Me(c.Request.Context(), httpx.UserID(c))
		if err != nil {
			writeErr(c, err)
			return
		}
		httpx.OK(c, p)
	}
}

func UpdateProfileHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var upd ProfileUpdate
		if err := c.ShouldBindJSON(&upd); err != nil {
			httpx.BadRequest(c, "参数验证失败")
			return
		}
		p, err := svc.UpdateProfile(c.Request.Context(), httpx.UserID(c), upd)
		if err != nil {
			writeErr(c, err)
			return
		}
		httpx.OK(c, p)
	}
}

func ChangePasswordHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req changePasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "参数验证失败")
			return
		}
		if err := svc.ChangePassword(c.Request.Context(), httpx.UserID(c),
			req.OldPassword, req.NewPassword); err != nil {
			writeErr(c, err)
			return
		}
		httpx.OK(c, nil)
	}
}

func AddressListHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		addrs, err := svc.Addresses(c.Request.Context(), httpx.UserID(c))
		if err != nil {
			writeErr(c, err)
			return
		}
		httpx.OK(c, addrs)
	}
}

func AddressCreateHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addressRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "参数验证失败")
			return
		}
		a, err := svc.CreateAddress(c.Request.Context(), httpx.UserID(c), Address{
			ReceiverName:  req.ReceiverName,
			ReceiverPhone: req.ReceiverPhone,
			Province:      req.Province,
			City:          req.City,
			District:      req.District,
			DetailAddress: req.DetailAddress,
			IsDefault:     req.IsDefault,
		})
		if err != nil {
			writeErr(c, err)
			return
		}
		httpx.Created(c, a)
	}
}

func AddressUpdateHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addressRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "参数验证失败")
			return
		}
		a, err := svc.UpdateAddress(c.Request.Context(), httpx.UserID(c), c.Param("id"), Address{
			ReceiverName:  req.ReceiverName,
			ReceiverPhone: req.ReceiverPhone,
			Province:      req.Province,
			City:          req.City,
			District:      req.District,
			DetailAddress: req.DetailAddress,
			IsDefault:     req.IsDefault,
		})
		if err != nil {
			writeErr(c, err)
			return
		}
		httpx.OK(c, a)
	}
}

func AddressDeleteHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.DeleteAddress(c.Request.Context(), httpx.UserID(c), c.Param("id")); err != nil {
			writeErr(c, err)
			return
		}
		httpx.OK(c, nil)
	}
}

func AddressSetDefaultHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.SetDefaultAddress(c.Request.Context(), httpx.UserID(c), c.Param("id")); err != nil {
			writeErr(c, err)
			return
		}
		httpx.OK(c, nil)
	}
}

func FavoriteAddHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ProductID string `json:"productId" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.BadRequest(c, "参数验证失败")
			return
		}
		if err := svc.AddFavorite(c.Request.Context(), httpx.UserID(c), req.ProductID); err != nil {
			writeErr(c, err)
			return
		}
		httpx.Created(c, nil)
	}
}

func FavoriteRemoveHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.RemoveFavorite(c.Request.Context(), httpx.UserID(c), c.Param("productId")); err != nil {
			writeErr(c, err)
			return
		}
		httpx.OK(c, nil)
	}
}

func FavoriteListHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := httpx.PageQuery(c)
		items, total, err := svc.Favorites(c.Request.Context(), httpx.UserID(c), page, pageSize)
		if err != nil {
			writeErr(c, err)
			return
		}
		httpx.Paginated(c, items, total, page, pageSize)
	}
}

func HistoryListHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := httpx.PageQuery(c)
		items, total, err := svc.History(c.Request.Context(), httpx.UserID(c), page, pageSize)
		if err != nil {
			writeErr(c, err)
			return
		}
		httpx.Paginated(c, items, total, page, pageSize)
	}
}

func HistoryClearHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.ClearHistory(c.Request.Context(), httpx.UserID(c)); err != nil {
			writeErr(c, err)
			return
		}
		httpx.OK(c, nil)
	}
}

func FollowHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Follow(c.Request.Context(), httpx.UserID(c), c.Param("id")); err != nil {
			writeErr(c, err)
			return
		}
		httpx.Created(c, nil)
	}
}

func UnfollowHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Unfollow(c.Request.Context(), httpx.UserID(c), c.Param("id")); err != nil {
			writeErr(c, err)
			return
		}
		httpx.OK(c, nil)
	}
}

func FollowerListHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := httpx.PageQuery(c)
		items, total, err := svc.Followers(c.Request.Context(), httpx.UserID(c), page, pageSize)
		if err != nil {
			writeErr(c, err)
			return
		}
		httpx.Paginated(c, items, total, page, pageSize)
	}
}

func FollowingListHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := httpx.PageQuery(c)
		items, total, err := svc.Following(c.Request.Context(), httpx.UserID(c), page, pageSize)
		if err != nil {
			writeErr(c, err)
			return
		}
		httpx.Paginated(c, items, total, page, pageSize)
	}
}
