package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"storefront/internal/handler"
	"storefront/internal/server"
	"storefront/internal/usecase"
	auth "storefront/internal/usecase/auth_usecase"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := boot(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		cfg := a.cfg
		r := a.repos
		idGen := &uuidGenerator{}
		clock := &realClock{}

		//bcrypt（会員登録：Hash / ログイン：Verify）
		hasher := auth.NewBcryptPasswordHasher(12)
		verifier := auth.NewBcryptPasswordVerifier()
		issuer := auth.NewJWTIssuer(cfg.JWTSecret, cfg.AccessTokenTTL)

		//Usecase生成
		productUC := usecase.NewProductUsecase(r.Tx, r.Products, idGen, clock)
		cartUC := usecase.NewCartUsecase(r.Carts, r.Products, idGen, clock)
		orderUC := usecase.NewOrderUsecase(r.Tx, r.Orders, r.Users, a.notifier(), idGen, clock, cfg.NotifyTimeout)
		adminOrderUC := usecase.NewAdminOrderUsecase(r.Tx, r.Orders, idGen, clock)
		reviewUC := usecase.NewReviewUsecase(r.Reviews, r.Products, idGen, clock)
		analyticsUC := usecase.NewAnalyticsUsecase(r.Analytics, r.Products, a.reportCache(ctx), cfg.AnalyticsCacheTTL, clock)
		auditUC := usecase.NewAuditLogUsecase(r.AuditLogs)
		registerUC := auth.NewRegisterUserUsecase(r.Users, hasher, idGen, clock)
		loginUC := auth.NewLoginUsecase(r.Users, verifier, issuer, clock)
		accountUC := auth.NewAccountUsecase(r.Users, r.AuditLogs, reviewUC, idGen, clock)

		//Handler生成
		h := server.Handlers{
			Auth:         handler.NewAuthHandler(registerUC, loginUC, accountUC),
			Product:      handler.NewProductHandler(productUC),
			AdminProduct: handler.NewAdminProductHandler(productUC),
			Cart:         handler.NewCartHandler(cartUC),
			Order:        handler.NewOrderHandler(orderUC),
			AdminOrder:   handler.NewAdminOrderHandler(adminOrderUC),
			Review:       handler.NewReviewHandler(reviewUC),
			Analytics:    handler.NewAnalyticsHandler(analyticsUC),
			AdminUser:    handler.NewAdminUserHandler(accountUC, auditUC),
		}
		guards := handler.Guards{JWTSecret: cfg.JWTSecret, Users: r.Users}

		e := server.New(cfg, a.log, guards, h, a.health)
		return server.Run(ctx, e, listenAddr(cfg.Port), a.log)
	},
}

// "8080" でも ":8080" でも受け付ける
func listenAddr(port string) string {
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}
