package db

import (
	"fmt"
	"log"

	"github.com/flowstart/douyin-web/models"
)

// RunMigrations 运行数据库迁移
// 此函数用于同步所有模型的数据库结构
func RunMigrations() {
	log.Println("开始运行数据库迁移...")

	modelsToMigrate := []interface{}{
		&models.Order{},
		&models.OrderSku{},
		&models.AfterSale{},
		&models.SkuStats{},
		&models.ProvinceStats{},
		&models.ProvinceSkuStats{},
		&models.LogisticsQueryLog{},
		&models.ImportTask{},
		&models.ImportJob{},
		&models.SystemConfig{},
	}

	// 循环同步每个模型
	for _, model := range modelsToMigrate {
		modelName := fmt.Sprintf("%T", model)
		if err := DB.AutoMigrate(model); err != nil {
			log.Printf("同步%v模型结构失败: %v", modelName, err)
		} else {
			log.Printf("%v 模型结构同步成功", modelName)
		}
	}

	// 初始化默认系统配置
	if err := models.InitDefaultConfigs(DB); err != nil {
		log.Printf("初始化默认配置失败: %v", err)
	}

	log.Println("数据库迁移完成！")
}
