package models

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"mime/multipart"
	"path/filepath"

	"bitbucket.org/mmdatafocus/stationery_backend/config"
	"bitbucket.org/mmdatafocus/stationery_backend/utils"
	"github.com/disintegration/imaging"
	"gorm.io/gorm"
)

type Image struct {
	ID            int    `gorm:"primary_key" json:"id"`
	ImageKey      string `gorm:"size:255" json:"image_key"`
	ThumbnailKey  string `gorm:"size:255" json:"thumbnail_key"`
	ImageUrl      string `gorm:"-" json:"image_url"`
	ThumbnailUrl  string `gorm:"-" json:"thumbnail_url"`
	ReferenceType string `json:"reference_type"`
	ReferenceID   int    `json:"reference_id"`
}

// fill access urls whenever a row is loaded, Preload included
func (img *Image) AfterFind(tx *gorm.DB) error {
	img.ImageUrl = utils.BuildObjectAccessURL(img.ImageKey)
	img.ThumbnailUrl = utils.BuildObjectAccessURL(img.ThumbnailKey)
	return nil
}

type NewImage struct {
	HasId
	HasIsDeleted
	ImageKey     string `json:"image_key"`
	ThumbnailKey string `json:"thumbnail_key"`
}

type UploadResponse struct {
	ImageKey     string `json:"image_key"`
	ThumbnailKey string `json:"thumbnail_key"`
	ImageUrl     string `json:"image_url"`
	ThumbnailUrl string `json:"thumbnail_url"`
}

func mapNewImages(imageInput []*NewImage, referenceType string, referenceId int) ([]*Image, error) {

	var images []*Image

	for _, input := range imageInput {
		image, err := input.MapInput(referenceType, referenceId)
		if err != nil {
			return nil, err
		}

		images = append(images, image)
	}
	return images, nil
}

func UploadSingleImage(ctx context.Context, file *multipart.FileHeader) (*UploadResponse, error) {

	originalKey, thumbnailKey, err := UploadImage(ctx, file)
	if err != nil {
		return nil, err
	}

	response := &UploadResponse{
		ImageKey:     originalKey,
		ThumbnailKey: thumbnailKey,
		ImageUrl:     utils.BuildObjectAccessURL(originalKey),
		ThumbnailUrl: utils.BuildObjectAccessURL(thumbnailKey),
	}

	return response, nil
}

func UploadMultipleImages(ctx context.Context, files []*multipart.FileHeader) ([]*UploadResponse, error) {
	var responseData []*UploadResponse

	for _, file := range files {
		response, err := UploadSingleImage(ctx, file)
		if err != nil {
			return nil, err
		}

		responseData = append(responseData, response)
	}

	return responseData, nil
}

// remove single image, including thumbnail
func RemoveImage(ctx context.Context, objectKey string) (*UploadResponse, error) {

	// only remove image if not used in database
	var count int64
	db := config.GetDB()

	if err := db.Model(&Image{}).WithContext(ctx).Where("image_key = ?", objectKey).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("cannot delete image associated with database")
	}

	// check if image exists
	if ok, err := utils.ObjectExists(ctx, objectKey); err != nil {
		return nil, err
	} else if !ok {
		return nil, errors.New("object does not exist")
	}

	// remove image + thumbnail from storage
	if err := utils.DeleteObject(ctx, objectKey); err != nil {
		return nil, err
	}
	thumbnailKey := thumbnailKeyFor(objectKey)
	if err := utils.DeleteObject(ctx, thumbnailKey); err != nil {
		return nil, err
	}

	return &UploadResponse{
		ImageKey:     objectKey,
		ThumbnailKey: thumbnailKey,
	}, nil
}

// uploads the original and a generated thumbnail, returns both object keys
func UploadImage(ctx context.Context, file *multipart.FileHeader) (string, string, error) {

	if file == nil {
		return "", "", errors.New("nil file provided")
	}

	src, err := file.Open()
	if err != nil {
		return "", "", err
	}
	defer src.Close()

	// Read the uploaded file
	data, err := io.ReadAll(src)
	if err != nil {
		return "", "", err
	}

	// Extract the file extension
	ext := filepath.Ext(file.Filename)
	if ext == "" {
		return "", "", errors.New("file has no extension")
	}
	storagePath := "products/"
	uniqueFilename := utils.GenerateUniqueFilename() + ext
	originalKey := filepath.Join(storagePath, uniqueFilename)
	thumbnailKey := filepath.Join(storagePath, "thumbnails", uniqueFilename)

	// Generate the thumbnail first, it also proves the upload decodes as an image
	thumbnailData, err := generateThumbnail(data)
	if err != nil {
		return "", "", err
	}

	// Save the original image
	imageData := base64.StdEncoding.EncodeToString(data)
	if err := utils.SaveImage(ctx, originalKey, imageData); err != nil {
		return "", "", err
	}

	// Save the thumbnail
	thumbnailImageData := base64.StdEncoding.EncodeToString(thumbnailData)
	if err := utils.SaveImage(ctx, thumbnailKey, thumbnailImageData); err != nil {
		return "", "", err
	}

	return originalKey, thumbnailKey, nil
}

func thumbnailKeyFor(objectKey string) string {
	dir := filepath.Dir(objectKey)
	filename := filepath.Base(objectKey)
	return filepath.Join(dir, "thumbnails", filename)
}

const maxImageBytes = 5 * 1024 * 1024

// CompleteImageUpload generates and stores the thumbnail for an object the
// client uploaded directly to storage via a signed URL. The returned keys go
// into a later product create or update payload.
func CompleteImageUpload(ctx context.Context, objectKey string) (*UploadResponse, error) {
	data, _, err := utils.ReadObject(ctx, objectKey)
	if err != nil {
		return nil, err
	}
	if len(data) > maxImageBytes {
		return nil, errors.New("file size exceeds 5MB limit")
	}

	thumbnailData, err := generateThumbnail(data)
	if err != nil {
		return nil, err
	}
	thumbnailKey := thumbnailKeyFor(objectKey)
	if err := utils.UploadBytes(ctx, thumbnailKey, thumbnailData, "image/jpeg"); err != nil {
		return nil, err
	}

	return &UploadResponse{
		ImageKey:     objectKey,
		ThumbnailKey: thumbnailKey,
		ImageUrl:     utils.BuildObjectAccessURL(objectKey),
		ThumbnailUrl: utils.BuildObjectAccessURL(thumbnailKey),
	}, nil
}

func generateThumbnail(originalData []byte) ([]byte, error) {
	// Decode the original image
	img, err := imaging.Decode(bytes.NewReader(originalData))
	if err != nil {
		return nil, err
	}

	// Resize the image to create a thumbnail
	thumbnail := imaging.Resize(img, 200, 0, imaging.Lanczos)

	// Encode the thumbnail to JPEG format
	var thumbnailBuffer bytes.Buffer
	err = imaging.Encode(&thumbnailBuffer, thumbnail, imaging.JPEG)
	if err != nil {
		return nil, err
	}

	return thumbnailBuffer.Bytes(), nil
}

func (img *Image) Store(tx *gorm.DB, ctx context.Context) error {
	if err := tx.WithContext(ctx).Create(&img).Error; err != nil {
		return err
	}
	return nil

}

func (img *Image) Update(tx *gorm.DB, ctx context.Context, data map[string]interface{}) error {
	// update existing image
	if err := tx.WithContext(ctx).Model(&img).Updates(data).Error; err != nil {
		return err
	}
	return nil
}

// expected img is loaded from db
func (img *Image) Delete(tx *gorm.DB, ctx context.Context) error {

	if err := tx.WithContext(ctx).Delete(&img).Error; err != nil {
		return err
	}
	if err := utils.DeleteObject(ctx, img.ImageKey); err != nil {
		return err
	}
	if err := utils.DeleteObject(ctx, img.ThumbnailKey); err != nil {
		return err
	}
	return nil
}

// checks both objects exist in storage before referencing them
func (input NewImage) checkObjects() error {
	ctx := context.Background()
	if ok, err := utils.ObjectExists(ctx, input.ImageKey); err != nil {
		return err
	} else if !ok {
		return errors.New("image object does not exist")
	}
	if ok, err := utils.ObjectExists(ctx, input.ThumbnailKey); err != nil {
		return err
	} else if !ok {
		return errors.New("thumbnail object does not exist")
	}
	return nil
}

// map newImage to Image, for db.Create(&image)
func (input NewImage) MapInput(referenceType string, referenceId int) (*Image, error) {
	if err := input.checkObjects(); err != nil {
		return nil, err
	}
	return &Image{
		ReferenceType: referenceType,
		ReferenceID:   referenceId,
		ImageKey:      input.ImageKey,
		ThumbnailKey:  input.ThumbnailKey,
	}, nil
}

func (input NewImage) Fillable() (map[string]interface{}, error) {
	if err := input.checkObjects(); err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"ImageKey":     input.ImageKey,
		"ThumbnailKey": input.ThumbnailKey,
	}, nil
}

func UpsertImages(ctx context.Context, tx *gorm.DB, inputImages []*NewImage, referenceType string, referenceId int) ([]*Image, error) {
	return UpsertPolymorphicAssociation(ctx, tx, inputImages, referenceType, referenceId)
}
