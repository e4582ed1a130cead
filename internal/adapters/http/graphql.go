package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/geoproxy/internal/core/domain"
	"github.com/samirrijal/geoproxy/internal/core/usecases"
)

// buildSchema exposes the same lookup as GET /v1/geocode.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	locationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Location",
		Fields: graphql.Fields{
			"source": &graphql.Field{Type: graphql.String},
			"lat":    &graphql.Field{Type: graphql.Float},
			"lon":    &graphql.Field{Type: graphql.Float},
		},
	})

	resultType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeocodeResult",
		Fields: graphql.Fields{
			"query":            &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"status":           &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"resolved_address": &graphql.Field{Type: graphql.String},
			"result":           &graphql.Field{Type: locationType},
			"error":            &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"geocode": &graphql.Field{
				Type:        graphql.NewNonNull(resultType),
				Description: "Resolve an address, trying each provider until one succeeds",
				Args: graphql.FieldConfigArgument{
					"address": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"service": &graphql.ArgumentConfig{Type: graphql.String},
					"bounds":  &graphql.ArgumentConfig{Type: graphql.String, Description: "lat,lon|lat,lon"},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					raw := usecases.RawRequest{Address: []string{p.Args["address"].(string)}}
					if s, ok := p.Args["service"].(string); ok {
						raw.Service = []string{s}
					}
					if b, ok := p.Args["bounds"].(string); ok {
						raw.Bounds = []string{b}
					}
					return resultMap(deps.Geocoder.Lookup(p.Context, raw)), nil
				},
			},
			"providers": &graphql.Field{
				Type:        graphql.NewList(graphql.String),
				Description: "Registered providers in default attempt order",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					ids := deps.Geocoder.Providers()
					out := make([]string, len(ids))
					for i, id := range ids {
						out[i] = string(id)
					}
					return out, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

func resultMap(r domain.ProxyResponse) map[string]interface{} {
	m := map[string]interface{}{
		"query":  r.Query,
		"status": string(r.Status),
	}
	if r.OK() {
		m["resolved_address"] = r.ResolvedAddress
		m["result"] = map[string]interface{}{
			"source": string(r.Source),
			"lat":    r.Latitude,
			"lon":    r.Longitude,
		}
	} else {
		m["error"] = r.Message
	}
	return m
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
