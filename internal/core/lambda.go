package core

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
)

// LambdaHandlerFunc is the signature lambda.Start expects for Function URL
// and API Gateway HTTP API (payload v2) integrations.
type LambdaHandlerFunc func(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error)

// LambdaHandler serves the mounted router for payload v2 events, so the same
// chi routes answer both the local listener and Lambda. Call it after
// MountRoutes.
func (s *Server) LambdaHandler() LambdaHandlerFunc {
	return chiadapter.NewV2(s.router).ProxyWithContextV2
}
