package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "YAR API",
        "description": "Self-hosted video sharing backend",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": ["http", "https"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Auth", "description": "Login, registration, token rotation and TOTP"},
        {"name": "Sessions", "description": "Refresh token sessions of the caller"},
        {"name": "Users", "description": "Profiles and account administration"},
        {"name": "Settings", "description": "Instance settings"},
        {"name": "Media", "description": "Byte range streaming of stored files"},
        {"name": "Videos", "description": "Browsing and editing videos"},
        {"name": "Upload", "description": "Remote imports and chunked uploads"},
        {"name": "Stats", "description": "Instance statistics"},
        {"name": "System", "description": "Health and metrics"}
    ],
    "paths": {
        "/health": {
            "get": {"tags": ["System"], "summary": "Health probe", "responses": {"200": {"description": "OK"}, "503": {"description": "A dependency is unreachable"}}}
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Login",
                "description": "Sets the refreshToken cookie. Limited to 5 attempts per hour and IP.",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/TokenPair"}},
                    "400": {"description": "INVALID_REQUEST", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "401": {"description": "INVALID_CREDENTIALS, TOTP_REQUIRED or TOTP_INVALID", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "429": {"description": "TOO_MANY_REQUESTS", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/auth/register": {
            "post": {
                "tags": ["Auth"],
                "summary": "Register",
                "description": "The first account becomes an administrator.",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/TokenPair"}},
                    "400": {"description": "INVALID_REQUEST", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "403": {"description": "Registration disabled", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "409": {"description": "USERNAME_TAKEN", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Rotate refresh token",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/TokenPair"}},
                    "401": {"description": "INVALID_CREDENTIALS", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/auth/logout": {
            "post": {"tags": ["Auth"], "summary": "Logout", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Success"}}}}
        },
        "/auth/totp/generate": {
            "get": {
                "tags": ["Auth"], "summary": "Generate TOTP secret", "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/TotpSecret"}}}
            }
        },
        "/auth/totp": {
            "post": {
                "tags": ["Auth"], "summary": "Enroll TOTP", "security": [{"BearerAuth": []}],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TotpEnrollRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Success"}},
                    "401": {"description": "TOTP_INVALID", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "403": {"description": "Already enrolled", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Auth"], "summary": "Remove TOTP", "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Success"}},
                    "403": {"description": "Not enrolled", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/sessions": {
            "get": {
                "tags": ["Sessions"], "summary": "List sessions", "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/Session"}}},
                    "401": {"description": "INVALID_CREDENTIALS", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Sessions"], "summary": "Revoke all sessions", "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Success"}}}
            }
        },
        "/sessions/{id}": {
            "delete": {
                "tags": ["Sessions"], "summary": "Revoke a session", "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Success"}},
                    "401": {"description": "INVALID_CREDENTIALS", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/users/me": {
            "get": {
                "tags": ["Users"], "summary": "Current user", "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ProfileView"}}}
            },
            "put": {
                "tags": ["Users"], "summary": "Update current user", "security": [{"BearerAuth": []}],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateProfileRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/UserView"}},
                    "400": {"description": "INVALID_REQUEST", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "409": {"description": "USERNAME_TAKEN", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/users": {
            "get": {
                "tags": ["Users"], "summary": "List users", "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/UserView"}}}}
            }
        },
        "/users/{id}": {
            "delete": {
                "tags": ["Users"], "summary": "Delete user", "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Success"}},
                    "403": {"description": "INSUFFICIENT_PERMISSIONS", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "404": {"description": "NOT_FOUND", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/settings": {
            "get": {
                "tags": ["Settings"], "summary": "List settings", "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"$ref": "#/definitions/Setting"}}}}
            }
        },
        "/settings/{key}": {
            "get": {
                "tags": ["Settings"], "summary": "Get setting",
                "parameters": [{"name": "key", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "401": {"description": "UNAUTHORIZED", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "404": {"description": "NOT_FOUND", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            },
            "put": {
                "tags": ["Settings"], "summary": "Update setting", "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "key", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateSettingRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Success"}},
                    "400": {"description": "INVALID_REQUEST", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/media/{id}": {
            "get": {
                "tags": ["Media"], "summary": "Stream media", "produces": ["application/octet-stream"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "token", "in": "query", "required": true, "type": "string"},
                    {"name": "Range", "in": "header", "type": "string"}
                ],
                "responses": {
                    "206": {"description": "Partial content"},
                    "401": {"description": "INVALID_CREDENTIALS", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "404": {"description": "MEDIA_NOT_FOUND", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "416": {"description": "Range not satisfiable"}
                }
            }
        },
        "/videos": {
            "get": {
                "tags": ["Videos"], "summary": "List videos", "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "skip", "in": "query", "type": "integer"},
                    {"name": "count", "in": "query", "type": "integer"},
                    {"name": "seed", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/VideoPage"}}}
            }
        },
        "/videos/search": {
            "get": {
                "tags": ["Videos"], "summary": "Search videos", "security": [{"BearerAuth": []}],
                "parameters": [{"name": "query", "in": "query", "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/VideoList"}}}
            }
        },
        "/videos/tags": {
            "get": {
                "tags": ["Videos"], "summary": "List tags", "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/TagCount"}}}}
            }
        },
        "/videos/{id}": {
            "get": {
                "tags": ["Videos"], "summary": "Get video", "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/VideoView"}},
                    "404": {"description": "NOT_FOUND", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            },
            "put": {
                "tags": ["Videos"], "summary": "Update video", "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateVideoRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/VideoView"}},
                    "403": {"description": "INSUFFICIENT_PERMISSIONS", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Videos"], "summary": "Delete video", "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Success"}},
                    "403": {"description": "INSUFFICIENT_PERMISSIONS", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/videos/{id}/thumbnail": {
            "put": {
                "tags": ["Videos"], "summary": "Upload thumbnail", "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "file", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/VideoView"}},
                    "400": {"description": "INVALID_MEDIA", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/videos/{id}/thumbnail/regenerate": {
            "post": {
                "tags": ["Videos"], "summary": "Regenerate thumbnail", "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/Success"}},
                    "429": {"description": "Queue full", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/upload/info": {
            "post": {
                "tags": ["Upload"], "summary": "Remote video info", "security": [{"BearerAuth": []}],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UploadInfoRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "INVALID_URL", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/upload/url": {
            "post": {
                "tags": ["Upload"], "summary": "Import a remote video", "security": [{"BearerAuth": []}],
                "produces": ["application/x-ndjson"],
                "parameters": [
                    {"name": "force", "in": "query", "type": "boolean"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UploadURLRequest"}}
                ],
                "responses": {
                    "200": {"description": "Progress lines followed by the result line", "schema": {"$ref": "#/definitions/UploadResult"}},
                    "409": {"description": "MEDIA_ALREADY_EXISTS", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/upload/file": {
            "post": {
                "tags": ["Upload"], "summary": "Start a chunked upload", "security": [{"BearerAuth": []}],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UploadFileRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/MediaView"}}}
            }
        },
        "/upload/file/{id}/part": {
            "post": {
                "tags": ["Upload"], "summary": "Upload a part", "security": [{"BearerAuth": []}],
                "consumes": ["application/octet-stream"],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Success"}},
                    "400": {"description": "MEDIA_NOT_PROCESSING", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "404": {"description": "MEDIA_NOT_FOUND", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/upload/file/{id}/complete": {
            "post": {
                "tags": ["Upload"], "summary": "Finish a chunked upload", "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UploadFileRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/VideoView"}}}
            }
        },
        "/upload/file/{id}/cancel": {
            "post": {
                "tags": ["Upload"], "summary": "Cancel a chunked upload", "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Success"}}}
            }
        },
        "/stats": {
            "get": {
                "tags": ["Stats"], "summary": "Instance statistics", "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Stats"}}}
            }
        },
        "/stats/export": {
            "get": {
                "tags": ["Stats"], "summary": "Export statistics", "security": [{"BearerAuth": []}],
                "produces": ["text/csv", "application/pdf"],
                "parameters": [{"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}],
                "responses": {"200": {"description": "Report file"}}
            }
        }
    },
    "definitions": {
        "ErrorBody": {
            "type": "object",
            "properties": {
                "type": {"type": "string"},
                "code": {"type": "integer"},
                "message": {"type": "string"},
                "details": {"type": "object"},
                "trace": {"type": "array", "items": {"type": "string"}}
            }
        },
        "ErrorEnvelope": {
            "type": "object",
            "properties": {"error": {"$ref": "#/definitions/ErrorBody"}}
        },
        "Success": {
            "type": "object",
            "properties": {"success": {"type": "boolean"}}
        },
        "LoginRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"},
                "totp_code": {"type": "string"},
                "device_type": {"type": "string", "enum": ["DESKTOP", "MOBILE", "OTHER"]}
            }
        },
        "RegisterRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"},
                "device_type": {"type": "string", "enum": ["DESKTOP", "MOBILE", "OTHER"]}
            }
        },
        "TokenPair": {
            "type": "object",
            "properties": {"accessToken": {"type": "string"}}
        },
        "TotpSecret": {
            "type": "object",
            "properties": {"secret": {"type": "string"}, "url": {"type": "string"}}
        },
        "TotpEnrollRequest": {
            "type": "object",
            "required": ["secret", "verify_code"],
            "properties": {"secret": {"type": "string"}, "verify_code": {"type": "string"}}
        },
        "Session": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "device_name": {"type": "string"},
                "device_type": {"type": "string"},
                "created_at": {"type": "string", "format": "date-time"},
                "current": {"type": "boolean"}
            }
        },
        "UserView": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "username": {"type": "string"},
                "roles": {"type": "array", "items": {"type": "string"}},
                "created_at": {"type": "string", "format": "date-time"}
            }
        },
        "ProfileView": {
            "allOf": [
                {"$ref": "#/definitions/UserView"},
                {"type": "object", "properties": {"totp_enabled": {"type": "boolean"}}}
            ]
        },
        "UpdateProfileRequest": {
            "type": "object",
            "required": ["username"],
            "properties": {
                "username": {"type": "string"},
                "oldPassword": {"type": "string"},
                "newPassword": {"type": "string"}
            }
        },
        "Setting": {
            "type": "object",
            "properties": {
                "type": {"type": "string", "enum": ["STRING", "INTEGER", "BOOLEAN"]},
                "value": {},
                "label": {"type": "string"}
            }
        },
        "UpdateSettingRequest": {
            "type": "object",
            "properties": {"value": {}}
        },
        "MediaView": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "type": {"type": "string", "enum": ["IMAGE", "VIDEO"]},
                "mime_type": {"type": "string"},
                "url": {"type": "string"},
                "processing": {"type": "boolean"},
                "duration": {"type": "number"},
                "width": {"type": "integer"},
                "height": {"type": "integer"},
                "created_at": {"type": "string", "format": "date-time"},
                "updated_at": {"type": "string", "format": "date-time"}
            }
        },
        "VideoView": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "source_url": {"type": "string"},
                "tags": {"type": "array", "items": {"type": "string"}},
                "author": {
                    "type": "object",
                    "properties": {
                        "id": {"type": "string"},
                        "username": {"type": "string"},
                        "created_at": {"type": "string", "format": "date-time"}
                    }
                },
                "media": {"$ref": "#/definitions/MediaView"},
                "thumbnail": {"$ref": "#/definitions/MediaView"},
                "created_at": {"type": "string", "format": "date-time"},
                "updated_at": {"type": "string", "format": "date-time"}
            }
        },
        "VideoPage": {
            "type": "object",
            "properties": {
                "videos": {"type": "array", "items": {"$ref": "#/definitions/VideoView"}},
                "seed": {"type": "string"}
            }
        },
        "VideoList": {
            "type": "object",
            "properties": {"videos": {"type": "array", "items": {"$ref": "#/definitions/VideoView"}}}
        },
        "TagCount": {
            "type": "object",
            "properties": {"tag": {"type": "string"}, "count": {"type": "integer"}}
        },
        "UpdateVideoRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "tags": {"type": "array", "items": {"type": "string"}}
            }
        },
        "UploadInfoRequest": {
            "type": "object",
            "required": ["url"],
            "properties": {"url": {"type": "string"}}
        },
        "UploadURLRequest": {
            "type": "object",
            "required": ["url", "input", "title", "tags"],
            "properties": {
                "url": {"type": "string"},
                "ext": {"type": "string"},
                "input": {"type": "string"},
                "title": {"type": "string"},
                "tags": {"type": "array", "items": {"type": "string"}}
            }
        },
        "UploadFileRequest": {
            "type": "object",
            "required": ["ext", "title", "tags"],
            "properties": {
                "ext": {"type": "string"},
                "title": {"type": "string"},
                "url": {"type": "string"},
                "tags": {"type": "array", "items": {"type": "string"}}
            }
        },
        "UploadResult": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "video": {"$ref": "#/definitions/VideoView"}
            }
        },
        "Stats": {
            "type": "object",
            "properties": {
                "storage": {
                    "type": "object",
                    "properties": {"total": {"type": "integer"}, "images": {"type": "integer"}, "videos": {"type": "integer"}}
                },
                "videos": {
                    "type": "object",
                    "properties": {"total": {"type": "integer"}, "totalDuration": {"type": "number"}, "averageDuration": {"type": "number"}}
                }
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
