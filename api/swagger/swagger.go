package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Barbershop API",
        "description": "Appointment availability and booking service for the shop floor",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Availability", "description": "Slot checks and slot grids"},
        {"name": "Bookings", "description": "Appointment lifecycle"},
        {"name": "Schedule", "description": "Working hours and date overrides"},
        {"name": "Kiosk", "description": "Walk-in counter"},
        {"name": "Admin", "description": "Operational summaries"}
    ],
    "paths": {
        "/availability/check": {
            "post": {
                "tags": ["Availability"],
                "summary": "Check whether a slot can be booked",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AvailabilityCheckRequest"}}
                ],
                "responses": {
                    "200": {"description": "Verdict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Malformed input", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Availability could not be verified", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/staff/{id}/slots": {
            "get": {
                "tags": ["Availability"],
                "summary": "Slot grid of a staff member",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "date", "in": "query", "required": true, "type": "string", "format": "date"},
                    {"name": "duration", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bookings": {
            "get": {
                "tags": ["Bookings"],
                "summary": "List bookings",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "staff_id", "in": "query", "type": "string"},
                    {"name": "client_id", "in": "query", "type": "string"},
                    {"name": "date_from", "in": "query", "type": "string", "format": "date"},
                    {"name": "date_to", "in": "query", "type": "string", "format": "date"},
                    {"name": "status", "in": "query", "type": "string", "enum": ["scheduled", "confirmed", "completed", "cancelled"]},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Bookings"],
                "summary": "Book a slot",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateBookingRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Slot unavailable or already booked", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Availability could not be verified", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bookings/{id}": {
            "get": {
                "tags": ["Bookings"],
                "summary": "Get a booking",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bookings/{id}/schedule": {
            "put": {
                "tags": ["Bookings"],
                "summary": "Move a booking",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RescheduleBookingRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Slot unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bookings/{id}/cancel": {
            "post": {
                "tags": ["Bookings"],
                "summary": "Cancel a booking",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bookings/{id}/status": {
            "patch": {
                "tags": ["Bookings"],
                "summary": "Move a booking along its lifecycle",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateBookingStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/staff/{id}/working-hours": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Weekly schedule of a staff member",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Schedule"],
                "summary": "Replace the weekly schedule of a staff member",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReplaceWorkingHoursRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/staff/{id}/overrides": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Overrides of a staff member on a date",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "date", "in": "query", "required": true, "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Schedule"],
                "summary": "Block or narrow a staff member's day",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateOverrideRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "A narrowing window already exists", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/overrides/{id}": {
            "delete": {
                "tags": ["Schedule"],
                "summary": "Remove an availability override",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/kiosk/slots": {
            "get": {
                "tags": ["Kiosk"],
                "summary": "Today's slot grid for the counter",
                "parameters": [
                    {"name": "staff_id", "in": "query", "required": true, "type": "string"},
                    {"name": "service_id", "in": "query", "type": "string"},
                    {"name": "date", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "429": {"description": "Rate limited", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/kiosk/check-in": {
            "post": {
                "tags": ["Kiosk"],
                "summary": "Check in an arriving client",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CheckInRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No booking today", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/kiosk/walk-ins": {
            "post": {
                "tags": ["Kiosk"],
                "summary": "Book a walk-in client for today",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/WalkInRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Slot unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/metrics/summary": {
            "get": {
                "tags": ["Admin"],
                "summary": "Process metrics summary",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "AvailabilityCheckRequest": {
            "type": "object",
            "required": ["staff_id", "date", "start_time"],
            "properties": {
                "staff_id": {"type": "string"},
                "date": {"type": "string", "format": "date"},
                "start_time": {"type": "string", "example": "10:30"},
                "duration_minutes": {"type": "integer"},
                "service_id": {"type": "string"},
                "exclude_booking_id": {"type": "string"}
            }
        },
        "AvailabilityResult": {
            "type": "object",
            "properties": {
                "valid": {"type": "boolean"},
                "error": {"type": "string"},
                "code": {"type": "string", "enum": ["INVALID_INPUT", "NOT_WORKING_DAY", "OUTSIDE_HOURS", "BOOKING_CONFLICT", "BLOCKED", "OUTSIDE_OVERRIDE_WINDOW", "UNVERIFIED"]}
            }
        },
        "TimeSlot": {
            "type": "object",
            "properties": {
                "time": {"type": "string"},
                "available": {"type": "boolean"},
                "reason": {"type": "string"}
            }
        },
        "CreateBookingRequest": {
            "type": "object",
            "required": ["staff_id", "client_id", "service_id", "date", "start_time"],
            "properties": {
                "staff_id": {"type": "string"},
                "client_id": {"type": "string"},
                "service_id": {"type": "string"},
                "date": {"type": "string", "format": "date"},
                "start_time": {"type": "string"},
                "notes": {"type": "string"}
            }
        },
        "RescheduleBookingRequest": {
            "type": "object",
            "required": ["date", "start_time"],
            "properties": {
                "date": {"type": "string", "format": "date"},
                "start_time": {"type": "string"}
            }
        },
        "UpdateBookingStatusRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string", "enum": ["confirmed", "completed", "cancelled"]}
            }
        },
        "WorkingHoursRuleInput": {
            "type": "object",
            "required": ["day_of_week", "start_time", "end_time"],
            "properties": {
                "day_of_week": {"type": "integer", "minimum": 0, "maximum": 6},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"},
                "is_active": {"type": "boolean"}
            }
        },
        "ReplaceWorkingHoursRequest": {
            "type": "object",
            "properties": {
                "rules": {"type": "array", "items": {"$ref": "#/definitions/WorkingHoursRuleInput"}}
            }
        },
        "CreateOverrideRequest": {
            "type": "object",
            "required": ["date", "start_time", "end_time"],
            "properties": {
                "date": {"type": "string", "format": "date"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"},
                "is_available": {"type": "boolean"},
                "reason": {"type": "string"}
            }
        },
        "CheckInRequest": {
            "type": "object",
            "required": ["phone"],
            "properties": {
                "phone": {"type": "string"}
            }
        },
        "WalkInRequest": {
            "type": "object",
            "required": ["full_name", "phone", "staff_id", "service_id", "start_time"],
            "properties": {
                "full_name": {"type": "string"},
                "phone": {"type": "string"},
                "staff_id": {"type": "string"},
                "service_id": {"type": "string"},
                "start_time": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
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
