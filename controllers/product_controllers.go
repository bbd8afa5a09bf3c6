package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/rmaldonado/comanda/models"
	"github.com/rmaldonado/comanda/utils"
)

type ProductController struct {
	DB *gorm.DB
}

func NewProductController(db *gorm.DB) *ProductController {
	return &ProductController{DB: db}
}

// GetAllProducts -> menu listing with nested variants, optionally filtered by
// ?category=
func (pc *ProductController) GetAllProducts(c *gin.Context) {
	category := c.Query("category")

	query := pc.DB.Preload("Variants", func(db *gorm.DB) *gorm.DB {
		return db.Order("price asc")
	}).Order("category asc, name asc")

	if category != "" {
		if !models.IsValidCategory(category) {
			utils.RespondError(c, http.StatusBadRequest,
				invalidArgumentf("category %q, must be one of: %s", category, strings.Join(models.ProductCategories(), ", ")))
			return
		}
		query = query.Where("category = ?", category)
	}

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of products", products)
}

// GetProductByID
func (pc *ProductController) GetProductByID(c *gin.Context) {
	productID := c.Param("product_id")

	var product models.Product
	if err := pc.DB.Preload("Variants", func(db *gorm.DB) *gorm.DB {
		return db.Order("price asc")
	}).First(&product, productID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, notFoundf("product with ID %s", productID))
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Product detail", product)
}

type variantReq struct {
	Size  string  `json:"size"`
	Price float64 `json:"price"`
}

func validateVariantReq(v variantReq) error {
	if strings.TrimSpace(v.Size) == "" {
		return invalidArgumentf("variant size is required")
	}
	if v.Price <= 0 {
		return invalidArgumentf("variant price must be greater than 0")
	}
	return nil
}

// CreateProduct -> product plus its variants in one transaction, all or
// nothing.
func (pc *ProductController) CreateProduct(c *gin.Context) {
	var req struct {
		Name     string       `json:"name"`
		Category string       `json:"category"`
		Variants []variantReq `json:"variants"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		utils.RespondError(c, http.StatusBadRequest, invalidArgumentf("product name is required"))
		return
	}
	if !models.IsValidCategory(req.Category) {
		utils.RespondError(c, http.StatusBadRequest,
			invalidArgumentf("category %q, must be one of: %s", req.Category, strings.Join(models.ProductCategories(), ", ")))
		return
	}
	if len(req.Variants) == 0 {
		utils.RespondError(c, http.StatusBadRequest, invalidArgumentf("at least one variant (size/price) is required"))
		return
	}
	seen := make(map[string]bool)
	for _, v := range req.Variants {
		if err := validateVariantReq(v); err != nil {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
		size := strings.TrimSpace(v.Size)
		if seen[size] {
			utils.RespondError(c, http.StatusBadRequest, invalidArgumentf("duplicate variant size %q", size))
			return
		}
		seen[size] = true
	}

	product := models.Product{
		Name:      strings.TrimSpace(req.Name),
		Category:  req.Category,
		Available: true,
	}

	err := pc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&product).Error; err != nil {
			return err
		}
		for _, v := range req.Variants {
			variant := models.Variant{
				ProductID: product.ID,
				Size:      strings.TrimSpace(v.Size),
				Price:     v.Price,
			}
			if err := tx.Create(&variant).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	pc.DB.Preload("Variants").First(&product, product.ID)

	utils.InfoLogger.Printf("Product created: %s (%s, %d variants)", product.Name, product.Category, len(product.Variants))
	utils.RespondJSON(c, http.StatusCreated, "Product created", product)
}

// UpdateProduct -> name and/or category only; variants have their own
// endpoints.
func (pc *ProductController) UpdateProduct(c *gin.Context) {
	productID := c.Param("product_id")

	var req struct {
		Name     *string `json:"name"`
		Category *string `json:"category"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var product models.Product
	if err := pc.DB.First(&product, productID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, notFoundf("product with ID %s", productID))
		return
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			utils.RespondError(c, http.StatusBadRequest, invalidArgumentf("product name cannot be empty"))
			return
		}
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Category != nil {
		if !models.IsValidCategory(*req.Category) {
			utils.RespondError(c, http.StatusBadRequest,
				invalidArgumentf("category %q, must be one of: %s", *req.Category, strings.Join(models.ProductCategories(), ", ")))
			return
		}
		product.Category = *req.Category
	}

	if err := pc.DB.Save(&product).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	pc.DB.Preload("Variants").First(&product, product.ID)
	utils.RespondJSON(c, http.StatusOK, "Product updated", product)
}

// DeleteProduct -> refused while any non-terminal order still references the
// product; toggling availability is the soft alternative.
func (pc *ProductController) DeleteProduct(c *gin.Context) {
	productID := c.Param("product_id")

	var product models.Product
	if err := pc.DB.First(&product, productID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, notFoundf("product with ID %s", productID))
		return
	}

	var activeRefs int64
	pc.DB.Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("order_items.product_id = ? AND orders.status NOT IN ?",
			product.ID, []string{models.OrderCompleted, models.OrderCancelled}).
		Count(&activeRefs)
	if activeRefs > 0 {
		utils.RespondError(c, http.StatusBadRequest,
			conflictf("product %q has active orders, disable it instead", product.Name))
		return
	}

	err := pc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", product.ID).Delete(&models.Variant{}).Error; err != nil {
			return err
		}
		return tx.Delete(&product).Error
	})
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Product %d deleted", product.ID)
	utils.RespondJSON(c, http.StatusOK, "Product deleted", gin.H{"product_id": product.ID})
}

// SetAvailability -> soft on/off switch for the menu
func (pc *ProductController) SetAvailability(c *gin.Context) {
	productID := c.Param("product_id")

	var req struct {
		Available *bool `json:"available" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var product models.Product
	if err := pc.DB.First(&product, productID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, notFoundf("product with ID %s", productID))
		return
	}

	product.Available = *req.Available
	if err := pc.DB.Save(&product).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	pc.DB.Preload("Variants").First(&product, product.ID)
	utils.RespondJSON(c, http.StatusOK, "Product availability updated", product)
}

// AddVariant -> new size option; duplicate size labels per product are
// rejected.
func (pc *ProductController) AddVariant(c *gin.Context) {
	productID := c.Param("product_id")

	var req variantReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var product models.Product
	if err := pc.DB.First(&product, productID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, notFoundf("product with ID %s", productID))
		return
	}

	if err := validateVariantReq(req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	size := strings.TrimSpace(req.Size)
	var existing int64
	pc.DB.Model(&models.Variant{}).
		Where("product_id = ? AND size = ?", product.ID, size).
		Count(&existing)
	if existing > 0 {
		utils.RespondError(c, http.StatusBadRequest,
			conflictf("variant %q already exists for this product", size))
		return
	}

	variant := models.Variant{
		ProductID: product.ID,
		Size:      size,
		Price:     req.Price,
	}
	if err := pc.DB.Create(&variant).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Variant added", variant)
}

// UpdateVariant -> size and/or price. Existing order items keep their
// snapshotted unit price.
func (pc *ProductController) UpdateVariant(c *gin.Context) {
	variantID := c.Param("variant_id")

	var req struct {
		Size  *string  `json:"size"`
		Price *float64 `json:"price"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var variant models.Variant
	if err := pc.DB.First(&variant, variantID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, notFoundf("variant with ID %s", variantID))
		return
	}

	if req.Size != nil {
		size := strings.TrimSpace(*req.Size)
		if size == "" {
			utils.RespondError(c, http.StatusBadRequest, invalidArgumentf("variant size cannot be empty"))
			return
		}
		var existing int64
		pc.DB.Model(&models.Variant{}).
			Where("product_id = ? AND size = ? AND id <> ?", variant.ProductID, size, variant.ID).
			Count(&existing)
		if existing > 0 {
			utils.RespondError(c, http.StatusBadRequest,
				conflictf("variant %q already exists for this product", size))
			return
		}
		variant.Size = size
	}
	if req.Price != nil {
		if *req.Price <= 0 {
			utils.RespondError(c, http.StatusBadRequest, invalidArgumentf("variant price must be greater than 0"))
			return
		}
		variant.Price = *req.Price
	}

	if err := pc.DB.Save(&variant).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Variant updated", variant)
}

// DeleteVariant -> refused for the last variant of a product and for variants
// referenced by non-terminal orders.
func (pc *ProductController) DeleteVariant(c *gin.Context) {
	variantID := c.Param("variant_id")

	var variant models.Variant
	if err := pc.DB.First(&variant, variantID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, notFoundf("variant with ID %s", variantID))
		return
	}

	var siblings int64
	pc.DB.Model(&models.Variant{}).
		Where("product_id = ?", variant.ProductID).
		Count(&siblings)
	if siblings <= 1 {
		utils.RespondError(c, http.StatusBadRequest,
			invalidStatef("cannot remove the last variant, a product needs at least one"))
		return
	}

	var activeRefs int64
	pc.DB.Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("order_items.variant_id = ? AND orders.status NOT IN ?",
			variant.ID, []string{models.OrderCompleted, models.OrderCancelled}).
		Count(&activeRefs)
	if activeRefs > 0 {
		utils.RespondError(c, http.StatusBadRequest,
			conflictf("variant %q has active orders", variant.Size))
		return
	}

	if err := pc.DB.Delete(&variant).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Variant deleted", gin.H{"variant_id": variant.ID})
}
