package dao

import (
	"blogapi/model"

	"gorm.io/gorm"
)

type PostDAO struct {
	db *gorm.DB
}

func NewPostDAO(db *gorm.DB) *PostDAO {
	return &PostDAO{db: db}
}

func (dao *PostDAO) Create(post *model.Post) error {
	return dao.db.Create(post).Error
}

func (dao *PostDAO) FindByID(id uint64) (*model.Post, error) {
	var post model.Post
	err := dao.db.First(&post, id).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// List 返回全部帖子，按创建时间倒序
func (dao *PostDAO) List() ([]model.Post, error) {
	var posts []model.Post
	err := dao.db.Order("created_at DESC").Find(&posts).Error
	return posts, err
}

func (dao *PostDAO) Update(post *model.Post) error {
	return dao.db.Save(post).Error
}

func (dao *PostDAO) Delete(id uint64) error {
	return dao.db.Delete(&model.Post{}, id).Error
}
