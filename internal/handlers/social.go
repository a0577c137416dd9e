package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nandigama/InvestSimulate2/internal/models"
)

type subscribeBody struct {
	UserID   int64 `json:"user_id" binding:"required"`
	TraderID int64 `json:"trader_id" binding:"required"`
}

// Subscribe handles POST /api/subscribe. The subscription records the
// trader's fee at the moment of subscribing; billing is not modeled.
func (a *API) Subscribe(c *gin.Context) {
	var body subscribeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if _, err := a.store.Account(ctx, body.UserID); err != nil {
		a.fail(c, err)
		return
	}
	trader, err := a.store.Account(ctx, body.TraderID)
	if err != nil {
		a.fail(c, err)
		return
	}
	if !trader.IsTrader {
		a.fail(c, models.ErrNotATrader)
		return
	}

	sub, err := a.store.CreateSubscription(ctx, body.UserID, trader.ID, trader.SubscriptionFee)
	if err != nil {
		a.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, sub)
}

// CancelSubscription handles POST /api/subscriptions/:id/cancel.
func (a *API) CancelSubscription(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid subscription id"})
		return
	}

	if err := a.store.CancelSubscription(c.Request.Context(), id); err != nil {
		a.fail(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// GetSubscriptions handles GET /api/subscriptions/:userId.
func (a *API) GetSubscriptions(c *gin.Context) {
	userID, err := pathID(c, "userId")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	subs, err := a.store.ActiveSubscriptions(c.Request.Context(), userID)
	if err != nil {
		a.fail(c, err)
		return
	}
	if subs == nil {
		subs = []models.Subscription{}
	}
	c.JSON(http.StatusOK, subs)
}

type followBody struct {
	UserID int64 `json:"user_id" binding:"required"`
}

// FollowTrader handles POST /api/traders/:id/follow.
func (a *API) FollowTrader(c *gin.Context) {
	traderID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trader id"})
		return
	}

	var body followBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if _, err := a.store.Account(ctx, body.UserID); err != nil {
		a.fail(c, err)
		return
	}
	if _, err := a.store.Account(ctx, traderID); err != nil {
		a.fail(c, err)
		return
	}

	edge, err := a.store.Follow(ctx, body.UserID, traderID)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, edge)
}

// UnfollowTrader handles DELETE /api/traders/:id/follow. The follower
// is identified by the follower_id query parameter.
func (a *API) UnfollowTrader(c *gin.Context) {
	traderID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trader id"})
		return
	}

	followerID, err := queryID(c, "follower_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid follower_id"})
		return
	}

	if err := a.store.Unfollow(c.Request.Context(), followerID, traderID); err != nil {
		a.fail(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// GetFollowers handles GET /api/traders/:id/followers.
func (a *API) GetFollowers(c *gin.Context) {
	traderID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trader id"})
		return
	}

	followers, err := a.store.Followers(c.Request.Context(), traderID)
	if err != nil {
		a.fail(c, err)
		return
	}
	if followers == nil {
		followers = []models.FollowEdge{}
	}
	c.JSON(http.StatusOK, followers)
}
