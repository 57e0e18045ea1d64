package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/transtime/routeplanner/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to our services. The
// surface is read-only: mutations go through the REST endpoints.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	coordinateType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Coordinate",
		Fields: graphql.Fields{
			"lon": &graphql.Field{Type: graphql.Float},
			"lat": &graphql.Field{Type: graphql.Float},
		},
	})

	alternativeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Alternative",
		Fields: graphql.Fields{
			"index":                   &graphql.Field{Type: graphql.Int},
			"distance_meters":         &graphql.Field{Type: graphql.Float},
			"duration_sec":            &graphql.Field{Type: graphql.Float},
			"duration_in_traffic_sec": &graphql.Field{Type: graphql.Float},
		},
	})

	requestType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RouteRequest",
		Fields: graphql.Fields{
			"from":      &graphql.Field{Type: graphql.String},
			"to":        &graphql.Field{Type: graphql.String},
			"veh":       &graphql.Field{Type: graphql.String},
			"viaPoints": &graphql.Field{Type: graphql.NewList(coordinateType)},
		},
	})

	layerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Layer",
		Fields: graphql.Fields{
			"name": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return string(p.Source.(domain.LayerState).Spec.Name), nil
				},
			},
			"title": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(domain.LayerState).Spec.Title, nil
				},
			},
			"loaded": &graphql.Field{
				Type: graphql.Boolean,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(domain.LayerState).Loaded, nil
				},
			},
			"visible": &graphql.Field{
				Type: graphql.Boolean,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(domain.LayerState).Visible, nil
				},
			},
			"visible_features": &graphql.Field{
				Type: graphql.Int,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(domain.LayerState).VisibleFeatures, nil
				},
			},
			"total_features": &graphql.Field{
				Type: graphql.Int,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(domain.LayerState).TotalFeatures, nil
				},
			},
		},
	})

	savedRouteType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SavedRoute",
		Fields: graphql.Fields{
			"id":    &graphql.Field{Type: graphql.Int},
			"label": &graphql.Field{Type: graphql.String},
			"from":  &graphql.Field{Type: graphql.String},
			"to":    &graphql.Field{Type: graphql.String},
			"veh":   &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"session": &graphql.Field{
				Type:        requestType,
				Description: "The request currently being edited",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Session.Request(), nil
				},
			},
			"alternatives": &graphql.Field{
				Type:        graphql.NewList(alternativeType),
				Description: "Alternatives of the last successful build",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					result := deps.Session.Result()
					if result == nil {
						return nil, nil
					}
					return result.Alternatives, nil
				},
			},
			"activeIndex": &graphql.Field{
				Type:        graphql.Int,
				Description: "Index of the active alternative",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					result := deps.Session.Result()
					if result == nil {
						return nil, nil
					}
					return result.ActiveIndex, nil
				},
			},
			"layers": &graphql.Field{
				Type:        graphql.NewList(layerType),
				Description: "State of every regulatory overlay",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Layers.States(), nil
				},
			},
			"savedRoutes": &graphql.Field{
				Type:        graphql.NewList(savedRouteType),
				Description: "Saved routes in insertion order",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Saved.List(), nil
				},
			},
			"shareToken": &graphql.Field{
				Type:        graphql.String,
				Description: "Share token for the current request, empty when nothing is set",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Share.EncodeToken(), nil
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
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
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
