package echo

import e "github.com/labstack/echo/v4"

func RegisterRoutes(server *e.Echo, uploadHandler *UploadHandler) {
	server.POST("/api/v1/uploads", uploadHandler.CreateUpload)
	server.GET("/api/v1/uploads/:id", uploadHandler.GetUpload)
	server.POST("/api/v1/uploads/:id/commit", uploadHandler.CommitUpload)
	server.DELETE("/api/v1/uploads/:id", uploadHandler.DeleteUpload)
}
