package service

// PageRange 将 1 起始的页码转换为数据库查询的 offset/limit。
// 页码小于 1 时按第一页处理。
func PageRange(page, pageSize int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	return (page - 1) * pageSize, pageSize
}

// TotalPages 根据总行数计算总页数，0 行时返回 0 页。
func TotalPages(total int64, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
