// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"

	"book-creator-api/internal/interfaces/http/handler"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(
	v1 *gin.RouterGroup,
	bookHandler *handler.BookHandler,
	chatHandler *handler.ChatHandler,
) {
	// 书籍管理
	books := v1.Group("/books")
	{
		books.POST("", bookHandler.Create)
		books.GET("", bookHandler.List)
		books.GET("/:id/status", bookHandler.Status)
	}

	// 书籍问答
	v1.POST("/chat", chatHandler.Chat)
}
