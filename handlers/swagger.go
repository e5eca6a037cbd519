package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the CMS API.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>Karunya Trust CMS - Swagger</title>
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
  "info": { "title": "karunyatrust-cms", "version": "v1.0.0" },
  "components": {
    "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" } },
    "schemas": {
      "Credentials": { "type": "object", "required": ["username", "password"], "properties": { "username": {"type": "string"}, "password": {"type": "string"} } },
      "Session": { "type": "object", "properties": { "id": {"type": "string"}, "username": {"type": "string"}, "token": {"type": "string"} } },
      "BlogPost": { "type": "object", "properties": {
        "_id": {"type": "string"}, "title": {"type": "string"}, "slug": {"type": "string"}, "description": {"type": "string"},
        "subHeading": {"type": "string"}, "content": {"type": "string"}, "featuredImage": {"type": "string"}, "author": {"type": "string"},
        "status": {"type": "string", "enum": ["draft", "published"]}, "publishedAt": {"type": "string", "format": "date-time"},
        "createdAt": {"type": "string", "format": "date-time"}, "updatedAt": {"type": "string", "format": "date-time"} } },
      "DeliveryLog": { "type": "object", "properties": {
        "_id": {"type": "string"}, "patientName": {"type": "string"}, "phoneNumber": {"type": "string"}, "patientEmail": {"type": "string"},
        "fileUrl": {"type": "string"}, "fileType": {"type": "string"}, "status": {"type": "string", "enum": ["success", "failed"]},
        "sentAt": {"type": "string", "format": "date-time"} } }
    }
  },
  "paths": {
    "/auth/login": {
      "post": { "summary": "Log in with username and password", "requestBody": { "content": { "application/json": { "schema": {"$ref": "#/components/schemas/Credentials"} } } },
        "responses": { "200": { "description": "session token", "content": { "application/json": { "schema": {"$ref": "#/components/schemas/Session"} } } }, "401": { "description": "invalid credentials" } } }
    },
    "/auth/register-seed": {
      "post": { "summary": "Create an admin account", "requestBody": { "content": { "application/json": { "schema": {"$ref": "#/components/schemas/Credentials"} } } },
        "responses": { "201": { "description": "account created" }, "400": { "description": "user exists or invalid input" } } }
    },
    "/auth/logout": {
      "post": { "summary": "Revoke the current token", "security": [{"bearer": []}], "responses": { "200": { "description": "logged out" }, "401": { "description": "unauthorized" } } }
    },
    "/blogs": {
      "get": { "summary": "List published posts", "responses": { "200": { "description": "posts, newest first" } } },
      "post": { "summary": "Create a post (JSON or multipart with featuredImage)", "security": [{"bearer": []}], "responses": { "201": { "description": "created" }, "400": { "description": "invalid post or image" } } }
    },
    "/blogs/{slug}": {
      "get": { "summary": "Get a published post by slug", "parameters": [{"name": "slug", "in": "path", "required": true, "schema": {"type": "string"}}],
        "responses": { "200": { "description": "post" }, "404": { "description": "not found" } } }
    },
    "/blogs/admin/all": {
      "get": { "summary": "List every post including drafts", "security": [{"bearer": []}], "responses": { "200": { "description": "posts" } } }
    },
    "/blogs/{id}": {
      "put": { "summary": "Partially update a post", "security": [{"bearer": []}], "parameters": [{"name": "id", "in": "path", "required": true, "schema": {"type": "string"}}],
        "responses": { "200": { "description": "updated post" }, "404": { "description": "not found" } } },
      "delete": { "summary": "Delete a post", "security": [{"bearer": []}], "parameters": [{"name": "id", "in": "path", "required": true, "schema": {"type": "string"}}],
        "responses": { "200": { "description": "removed" }, "404": { "description": "not found" } } }
    },
    "/files/send": {
      "post": { "summary": "Send a report file to a patient (multipart: file, patientName, phoneNumber, email)", "security": [{"bearer": []}],
        "responses": { "201": { "description": "sent and logged" }, "400": { "description": "file missing" }, "502": { "description": "delivery failed and logged" } } }
    },
    "/files/logs": {
      "get": { "summary": "List delivery log entries, most recent first", "security": [{"bearer": []}], "responses": { "200": { "description": "entries" } } }
    },
    "/files/reports/{key}": {
      "get": { "summary": "Download a delivered report (disk storage)", "security": [{"bearer": []}],
        "parameters": [{ "name": "key", "in": "path", "required": true, "schema": { "type": "string" } }],
        "responses": { "200": { "description": "file" }, "401": { "description": "unauthorized" }, "404": { "description": "not found" } } }
    },
    "/api/config": {
      "get": { "summary": "Public client configuration", "responses": { "200": { "description": "razorpayKeyId" } } }
    },
    "/health": { "get": { "summary": "Liveness", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
