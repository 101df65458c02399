package admin

import "github.com/tourdesk-next/internal/provider"

// Handler 管理端接口：商品目录、渠道策略与价格规则
type Handler struct {
	*provider.Container
}

// New 创建管理端处理器，服务均从容器取用
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
