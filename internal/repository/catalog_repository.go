package repository

import (
	"github.com/mautops/fieldops-gin/internal/model"
	"gorm.io/gorm"
)

// CatalogRepository 参考数据目录仓储接口
// 状态、参数、活动、服务类型目录由目录子系统维护,对本核心只读
type CatalogRepository interface {
	FindStateByCode(code string) (*model.OrderStateModel, error)
	FindAllStates() ([]*model.OrderStateModel, error)
	FindParameterByID(id string) (*model.ParameterModel, error)
	FindAllParameters() ([]*model.ParameterModel, error)
	FindActivityByID(id string) (*model.CatalogActivityModel, error)
	FindAllActivities() ([]*model.CatalogActivityModel, error)
	FindAllServiceTypes() ([]*model.ServiceTypeModel, error)
}

// catalogRepository 参考数据目录仓储实现
type catalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository 创建参考数据目录仓储
func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

// FindStateByCode 根据状态码查找状态目录条目
func (r *catalogRepository) FindStateByCode(code string) (*model.OrderStateModel, error) {
	var state model.OrderStateModel
	if err := r.db.Where("code = ?", code).First(&state).Error; err != nil {
		return nil, err
	}
	return &state, nil
}

// FindAllStates 查找所有状态目录条目
func (r *catalogRepository) FindAllStates() ([]*model.OrderStateModel, error) {
	var states []*model.OrderStateModel
	err := r.db.Order("display_order ASC").Find(&states).Error
	return states, err
}

// FindParameterByID 根据 ID 查找测量参数
func (r *catalogRepository) FindParameterByID(id string) (*model.ParameterModel, error) {
	var param model.ParameterModel
	if err := r.db.Where("id = ?", id).First(&param).Error; err != nil {
		return nil, err
	}
	return &param, nil
}

// FindAllParameters 查找所有测量参数
func (r *catalogRepository) FindAllParameters() ([]*model.ParameterModel, error) {
	var params []*model.ParameterModel
	err := r.db.Order("name ASC").Find(&params).Error
	return params, err
}

// FindActivityByID 根据 ID 查找目录活动
func (r *catalogRepository) FindActivityByID(id string) (*model.CatalogActivityModel, error) {
	var activity model.CatalogActivityModel
	if err := r.db.Where("id = ?", id).First(&activity).Error; err != nil {
		return nil, err
	}
	return &activity, nil
}

// FindAllActivities 查找所有目录活动
func (r *catalogRepository) FindAllActivities() ([]*model.CatalogActivityModel, error) {
	var activities []*model.CatalogActivityModel
	err := r.db.Order("name ASC").Find(&activities).Error
	return activities, err
}

// FindAllServiceTypes 查找所有服务类型
func (r *catalogRepository) FindAllServiceTypes() ([]*model.ServiceTypeModel, error) {
	var types []*model.ServiceTypeModel
	err := r.db.Order("name ASC").Find(&types).Error
	return types, err
}
