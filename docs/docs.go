// Package docs registers the OpenAPI description of the BlogHub API with swag so
// http-swagger can serve it at /swagger/doc.json. Keep it in sync with the
// godoc annotations on the handlers (swag init regenerates it).
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/register": {
            "post": {
                "tags": ["Auth"],
                "summary": "User Registration",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "registerBody", "required": true, "schema": {"$ref": "#/definitions/auth.RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "User created successfully", "schema": {"$ref": "#/definitions/auth.AuthResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}},
                    "409": {"description": "Username or email already taken", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}}
                }
            }
        },
        "/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "User Login",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "loginBody", "required": true, "schema": {"$ref": "#/definitions/auth.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Login successful", "schema": {"$ref": "#/definitions/auth.AuthResponse"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}}
                }
            }
        },
        "/reset-password": {
            "post": {
                "tags": ["Auth"],
                "summary": "Request Password Reset",
                "parameters": [
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/auth.ResetPasswordRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/auth.MessageResponse"}},
                    "404": {"description": "No account with this email", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}},
                    "502": {"description": "Mail transport failure", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}}
                }
            }
        },
        "/set-new-password": {
            "post": {
                "tags": ["Auth"],
                "summary": "Set New Password",
                "parameters": [
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/auth.SetNewPasswordRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/auth.MessageResponse"}},
                    "401": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}}
                }
            }
        },
        "/stats": {
            "get": {
                "tags": ["Users"],
                "summary": "Site statistics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/users.SiteStatsResponse"}}
                }
            }
        },
        "/profile/{username}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Users"],
                "summary": "Get a user's profile",
                "parameters": [
                    {"type": "string", "name": "username", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/users.ProfileResponse"}},
                    "404": {"description": "User not found", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}}
                }
            }
        },
        "/profile/update/{username}": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "tags": ["Users"],
                "summary": "Update own profile or toggle a follow",
                "parameters": [
                    {"type": "string", "name": "username", "in": "path", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/users.UpdateProfileRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/users.UserResponse"}},
                    "403": {"description": "Not your profile", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}}
                }
            }
        },
        "/users": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Users"],
                "summary": "List following or followers",
                "parameters": [
                    {"type": "string", "name": "category", "in": "query", "required": true, "enum": ["following", "followers"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/posts.UserCard"}}}
                }
            }
        },
        "/user/pic": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Users"],
                "summary": "Viewer's profile picture",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/users.PictureResponse"}}
                }
            }
        },
        "/posts/{tab}/{category}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Posts"],
                "summary": "Feed page",
                "parameters": [
                    {"type": "string", "name": "tab", "in": "path", "required": true, "enum": ["famous", "liked", "saved", "updates", "user"]},
                    {"type": "string", "name": "category", "in": "path", "required": true},
                    {"type": "string", "name": "user", "in": "query"},
                    {"type": "integer", "name": "skip", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/posts.FeedPage"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}}
                }
            }
        },
        "/posts/live": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Posts"],
                "summary": "Live post activity",
                "produces": ["text/event-stream"],
                "responses": {
                    "200": {"description": "event stream", "schema": {"type": "string"}}
                }
            }
        },
        "/posts/{postId}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Posts"],
                "summary": "Get post",
                "parameters": [
                    {"type": "string", "name": "postId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/posts.PostResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}}
                }
            }
        },
        "/posts/add": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Posts"],
                "summary": "Create post",
                "parameters": [
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/posts.CreatePostRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/posts.PostResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}}
                }
            }
        },
        "/posts/update/{postId}": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "tags": ["Posts"],
                "summary": "Edit, like or save a post",
                "parameters": [
                    {"type": "string", "name": "postId", "in": "path", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/posts.UpdateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/posts.PostResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}}
                }
            }
        },
        "/posts/delete/{postId}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["Posts"],
                "summary": "Delete post",
                "parameters": [
                    {"type": "string", "name": "postId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/posts.PostResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}}
                }
            }
        },
        "/search": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Search"],
                "summary": "Search",
                "parameters": [
                    {"type": "string", "name": "category", "in": "query", "required": true, "enum": ["username", "title", "tag"]},
                    {"type": "string", "name": "value", "in": "query", "required": true},
                    {"type": "integer", "name": "skip", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/posts.Post"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/apperror.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "apperror.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string", "example": "A description of the error"}}
        },
        "auth.RegisterRequest": {
            "type": "object",
            "required": ["email", "password", "username"],
            "properties": {
                "email": {"type": "string", "example": "alice@example.com"},
                "password": {"type": "string", "maxLength": 72, "minLength": 6, "example": "strongpassword123"},
                "username": {"type": "string", "maxLength": 30, "minLength": 3, "example": "alice"}
            }
        },
        "auth.LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string", "example": "alice@example.com"},
                "password": {"type": "string", "example": "strongpassword123"}
            }
        },
        "auth.ResetPasswordRequest": {
            "type": "object",
            "required": ["email"],
            "properties": {"email": {"type": "string", "example": "alice@example.com"}}
        },
        "auth.SetNewPasswordRequest": {
            "type": "object",
            "required": ["password", "token"],
            "properties": {
                "password": {"type": "string", "maxLength": 72, "minLength": 6},
                "token": {"type": "string"}
            }
        },
        "auth.MessageResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}}
        },
        "auth.User": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "username": {"type": "string"},
                "email": {"type": "string"},
                "profilePicture": {"type": "string"},
                "following": {"type": "array", "items": {"type": "string"}},
                "followers": {"type": "array", "items": {"type": "string"}},
                "liked_posts": {"type": "array", "items": {"type": "string"}},
                "saved_posts": {"type": "array", "items": {"type": "string"}},
                "created_at": {"type": "string"}
            }
        },
        "auth.AuthResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string", "example": "Login successful"},
                "token": {"type": "string"},
                "user": {"$ref": "#/definitions/auth.User"}
            }
        },
        "posts.Post": {
            "type": "object",
            "properties": {
                "_id": {"type": "string"},
                "title": {"type": "string"},
                "category": {"type": "string"},
                "content": {"type": "string"},
                "tags": {"type": "array", "items": {"type": "string"}},
                "visibility": {"type": "string", "enum": ["public", "private"]},
                "username": {"type": "string"},
                "likes": {"type": "array", "items": {"type": "string"}},
                "likes_count": {"type": "integer"},
                "saves": {"type": "array", "items": {"type": "string"}},
                "created_at": {"type": "string"},
                "profilePicture": {"type": "string"}
            }
        },
        "posts.PostResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "post": {"$ref": "#/definitions/posts.Post"}
            }
        },
        "posts.FeedPage": {
            "type": "object",
            "properties": {
                "posts": {"type": "array", "items": {"$ref": "#/definitions/posts.Post"}},
                "hasMore": {"type": "boolean"}
            }
        },
        "posts.CreatePostRequest": {
            "type": "object",
            "required": ["content", "title"],
            "properties": {
                "title": {"type": "string", "maxLength": 200},
                "category": {"type": "string"},
                "content": {"type": "string"},
                "tags": {"type": "array", "maxItems": 20, "items": {"type": "string"}},
                "visibility": {"type": "string", "enum": ["public", "private"]}
            }
        },
        "posts.UpdateRequest": {
            "type": "object",
            "properties": {
                "action": {"type": "string", "enum": ["post", "likes", "saves"]},
                "payload": {"type": "object"}
            }
        },
        "posts.UserCard": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "profilePicture": {"type": "string"}
            }
        },
        "posts.AuthorStats": {
            "type": "object",
            "properties": {
                "totalPosts": {"type": "integer"},
                "totalLikes": {"type": "integer"}
            }
        },
        "users.ProfileResponse": {
            "type": "object",
            "properties": {
                "user": {"$ref": "#/definitions/auth.User"},
                "stats": {"$ref": "#/definitions/posts.AuthorStats"},
                "posts": {"type": "array", "items": {"$ref": "#/definitions/posts.Post"}}
            }
        },
        "users.UpdateProfileRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string", "example": "alice@example.com"},
                "profilePicture": {"type": "string", "example": "https://img.example.com/alice.png"},
                "following": {"type": "string", "example": "bob"}
            }
        },
        "users.UserResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "user": {"$ref": "#/definitions/auth.User"}
            }
        },
        "users.PictureResponse": {
            "type": "object",
            "properties": {"profilePicture": {"type": "string"}}
        },
        "users.SiteStatsResponse": {
            "type": "object",
            "properties": {
                "totalUsers": {"type": "integer"},
                "totalWriters": {"type": "integer"},
                "totalBlogs": {"type": "integer"},
                "totalLikes": {"type": "integer"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type 'Bearer YOUR_JWT_TOKEN' to authorize",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "BlogHub API",
	Description:      "REST API for BlogHub: accounts, posts, feeds, likes and saves, follows and search.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
