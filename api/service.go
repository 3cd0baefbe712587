package api

import (
	"context"
	"time"

	"VentaCommSaas/internal/serviceiface"
)

type GatewayService struct {
	config map[string]interface{}
}

func NewGatewayService(cfg map[string]interface{}) serviceiface.Service {
	return &GatewayService{config: cfg}
}

func (s *GatewayService) Name() string {
	return "gateway"
}

func (s *GatewayService) Start() error {
	go StartGateway()
	return nil
}

// Stop drains in-flight proxied requests before the process exits. Long-lived
// SSE streams hold the shutdown until the timeout cuts them off.
func (s *GatewayService) Stop() error {
	if gatewayServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return gatewayServer.Shutdown(ctx)
}
