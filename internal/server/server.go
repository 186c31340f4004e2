// Package server exposes the pipeline trigger endpoints. Partial failures
// never surface as transport errors: every trigger answers 200 and the
// message tells the story, which is the contract schedulers rely on.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/girasol-pay/deposit-listener/internal/services"
)

func New(listener *services.Listener) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/", trigger("listen", "All steps completed successfully", listener.Listen))
	router.GET("/fetch", trigger("fetch", "Deposit sync completed successfully", listener.Fetcher.SyncDeposits))
	router.GET("/confirm", trigger("confirmation", "Deposit confirmation completed successfully", listener.Confirmer.ConfirmDeposits))
	router.GET("/send", trigger("sending", "Deposit sending completed successfully", listener.Sender.SendConfirmedDeposits))
	router.GET("/sweep", trigger("sweeping", "Deposit sweeping completed successfully", listener.Sweeper.SweepDeposits))

	return router
}

func trigger(name, success string, run func(context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := run(c.Request.Context()); err != nil {
			c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Error during %s: %s", name, err)})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": success})
	}
}
