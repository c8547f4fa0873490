// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterV1Routes 注册 v1 版本路由；sendLimit 仅作用于消息发送接口
func RegisterV1Routes(v1 *gin.RouterGroup, h Handlers, sendLimit gin.HandlerFunc) {
	// 凭据管理
	credential := v1.Group("/credential")
	{
		credential.GET("", h.Credential.GetCredential)
		credential.PUT("", h.Credential.PutCredential)
		credential.DELETE("", h.Credential.DeleteCredential)
	}

	// 模型目录
	v1.GET("/models", h.Model.ListModels)
	v1.GET("/capability", h.Assistant.Capability)

	// 会话
	sessions := v1.Group("/sessions")
	{
		sessions.GET("", h.Assistant.ListSessions)
		sessions.POST("", h.Assistant.CreateSession)
		sessions.GET("/:sid", h.Assistant.GetSession)
		sessions.DELETE("/:sid", h.Assistant.CloseSession)
		sessions.PUT("/:sid/context", h.Assistant.UpdateContext)
		sessions.PUT("/:sid/model", h.Assistant.SelectModel)
		sessions.GET("/:sid/turns", h.Assistant.ListTurns)
		sessions.POST("/:sid/messages", sendLimit, h.Assistant.SendMessage)

		// 候选方案与编辑器
		sessions.GET("/:sid/artifact", h.Assistant.GetArtifact)
		sessions.POST("/:sid/artifact/validate", h.Assistant.ValidateArtifact)
		sessions.POST("/:sid/artifact/apply", h.Assistant.ApplyArtifact)
		sessions.GET("/:sid/draft", h.Assistant.GetDraft)
		sessions.PUT("/:sid/draft", h.Assistant.UpdateDraft)
	}

	// schema 校验
	v1.POST("/schemas/validate", h.Schema.Validate)
}
