package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the people API.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(swaggerHTML))
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>peopledb - Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "peopledb", "version": "v0.1.0" },
  "components": {
    "schemas": {
      "Person": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "_id": {"type":"string"},
          "name": {"type":"string"},
          "age": {"type":"integer"},
          "club": {"type":"string"},
          "favoriteFoods": {"type":"array","items":{"type":"string"}},
          "id": {"type":"string"}
        }
      }
    },
    "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer" } }
  },
  "paths": {
    "/api/people": {
      "get": { "summary": "Find people by exact name", "parameters": [{"name":"name","in":"query","required":true,"schema":{"type":"string"}}], "responses": { "200": { "description": "matching people (possibly empty)" } } },
      "post": { "summary": "Create a person", "security": [{"bearer":[]}], "responses": { "201": { "description": "created" }, "400": { "description": "name missing" }, "409": { "description": "id already exists" } } },
      "delete": { "summary": "Delete all people with a name", "security": [{"bearer":[]}], "parameters": [{"name":"name","in":"query","required":true,"schema":{"type":"string"}}], "responses": { "200": { "description": "deletedCount" } } }
    },
    "/api/people/batch": {
      "post": { "summary": "Create many people", "security": [{"bearer":[]}], "responses": { "201": { "description": "created" }, "400": { "description": "a record lacks name" } } }
    },
    "/api/people/by-id/{id}": {
      "get": { "summary": "Find a person by application id", "responses": { "200": { "description": "person" }, "404": { "description": "not found" } } }
    },
    "/api/people/{id}": {
      "delete": { "summary": "Delete a person by application id", "security": [{"bearer":[]}], "responses": { "200": { "description": "removed person" }, "204": { "description": "nothing matched" } } }
    },
    "/api/people/{id}/foods": {
      "post": { "summary": "Append a favorite food", "security": [{"bearer":[]}], "responses": { "200": { "description": "updated person" }, "404": { "description": "not found" } } }
    },
    "/api/people/age": {
      "patch": { "summary": "Set the age of the first person with a name", "security": [{"bearer":[]}], "responses": { "200": { "description": "updated person or null" } } }
    },
    "/api/people/by-food/{food}": {
      "get": { "summary": "First person who likes a food", "responses": { "200": { "description": "person" }, "404": { "description": "not found" } } }
    },
    "/api/people/burrito-lovers": {
      "get": { "summary": "Up to two burrito lovers sorted by name, without age", "responses": { "200": { "description": "people" } } }
    },
    "/api/people/search": {
      "get": { "summary": "Food query with sort, limit and age projection", "parameters": [{"name":"food","in":"query","schema":{"type":"string"}},{"name":"sort","in":"query","schema":{"type":"string","enum":["name"]}},{"name":"limit","in":"query","schema":{"type":"integer"}},{"name":"omitAge","in":"query","schema":{"type":"boolean"}}], "responses": { "200": { "description": "people" } } }
    },
    "/api/auth/revoke": {
      "post": { "summary": "Revoke the presented bearer token", "security": [{"bearer":[]}], "responses": { "204": { "description": "revoked" }, "401": { "description": "invalid token" } } }
    }
  }
}`
