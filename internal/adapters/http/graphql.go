package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/arcglobe/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to the route table service.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"name": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"lat":  &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
			"lon":  &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
		},
	})

	routeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Route",
		Fields: graphql.Fields{
			"origin":       &graphql.Field{Type: graphql.NewNonNull(geoPointType)},
			"destinations": &graphql.Field{Type: graphql.NewList(geoPointType)},
		},
	})

	boundsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Bounds",
		Fields: graphql.Fields{
			"min_lat": &graphql.Field{Type: graphql.Float},
			"min_lon": &graphql.Field{Type: graphql.Float},
			"max_lat": &graphql.Field{Type: graphql.Float},
			"max_lon": &graphql.Field{Type: graphql.Float},
		},
	})

	issueType := graphql.NewObject(graphql.ObjectConfig{
		Name: "AuditIssue",
		Fields: graphql.Fields{
			"severity": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return string(p.Source.(domain.AuditIssue).Severity), nil
				},
			},
			"path":    &graphql.Field{Type: graphql.String},
			"name":    &graphql.Field{Type: graphql.String},
			"value":   &graphql.Field{Type: graphql.Float},
			"message": &graphql.Field{Type: graphql.String},
		},
	})

	auditType := graphql.NewObject(graphql.ObjectConfig{
		Name: "AuditReport",
		Fields: graphql.Fields{
			"valid": &graphql.Field{
				Type: graphql.Boolean,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*domain.AuditReport).Valid(), nil
				},
			},
			"routes":    &graphql.Field{Type: graphql.Int},
			"points":    &graphql.Field{Type: graphql.Int},
			"bounds":    &graphql.Field{Type: boundsType},
			"errors":    &graphql.Field{Type: graphql.NewList(issueType)},
			"anomalies": &graphql.Field{Type: graphql.NewList(issueType)},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"routes": &graphql.Field{
				Type:        graphql.NewList(routeType),
				Description: "The full route table in source order",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Routes.List(p.Context)
				},
			},
			"route": &graphql.Field{
				Type:        routeType,
				Description: "One route by zero-based position",
				Args: graphql.FieldConfigArgument{
					"index": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					index := p.Args["index"].(int)
					return deps.Routes.Get(p.Context, index)
				},
			},
			"audit": &graphql.Field{
				Type:        auditType,
				Description: "Data-quality report for the table",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Routes.Audit(p.Context)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil || req.Query == "" {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
