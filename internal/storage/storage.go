package storage

import (
	"fmt"
	"mime/multipart"

	"github.com/UmedjonQurbonov/mini-instagram-beckend/config"
)

// Uploader 是图片上传后端的统一接口，返回可访问的路径或URL
type Uploader interface {
	UploadFile(file *multipart.FileHeader, path string) (string, error)
}

// New 根据配置选择存储后端
func New() (Uploader, error) {
	switch config.AppConfig.StorageBackend {
	case "s3":
		return NewS3Client(config.AppConfig.S3Region, config.AppConfig.S3Bucket)
	case "gcs":
		return NewGCSClient(config.AppConfig.GCSProjectID, config.AppConfig.GCSBucketName, config.AppConfig.GCSCredentialsFile)
	case "local":
		return NewLocalStorage(config.AppConfig.LocalStoragePath)
	default:
		return nil, fmt.Errorf("未知的存储后端: %s", config.AppConfig.StorageBackend)
	}
}
