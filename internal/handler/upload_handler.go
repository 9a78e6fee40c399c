package handler

import (
	"fmt"
	"image"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxUploadBytes = 8 << 20

// UploadImage 处理题图上传请求，校验图片格式后以唯一文件名保存
func (a *API) UploadImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, "未找到上传的图片")
		return
	}

	if file.Size > maxUploadBytes {
		respondError(c, http.StatusBadRequest, "图片大小超出限制")
		return
	}

	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		respondError(c, http.StatusBadRequest, "只允许上传图片文件")
		return
	}

	// 解码图片头做真实性校验，同时拿到尺寸
	src, err := file.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "读取图片失败")
		return
	}
	config, format, err := image.DecodeConfig(src)
	src.Close()
	if err != nil || config.Width <= 0 || config.Height <= 0 {
		respondError(c, http.StatusBadRequest, "无法识别的图片格式")
		return
	}

	uploadDir := a.uploadDir
	if uploadDir == "" {
		uploadDir = "./web/static/uploads"
	}
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		respondError(c, http.StatusInternalServerError, "创建上传目录失败")
		return
	}

	ext := filepath.Ext(file.Filename)
	if ext == "" {
		ext = "." + format
	}
	newFilename := fmt.Sprintf("%s-%s%s", time.Now().Format("20060102"), uuid.New().String(), ext)
	filePath := filepath.Join(uploadDir, newFilename)

	if err := c.SaveUploadedFile(file, filePath); err != nil {
		respondError(c, http.StatusInternalServerError, "保存文件失败")
		return
	}

	urlPath := a.uploadURL
	if urlPath == "" {
		urlPath = "/static/uploads"
	}
	fileURL := fmt.Sprintf("%s/%s", strings.TrimRight(urlPath, "/"), newFilename)

	c.JSON(http.StatusOK, gin.H{
		"url":    fileURL,
		"width":  config.Width,
		"height": config.Height,
	})
}
