package echoapi

import (
	"net/http"
	"sort"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Evenson-7/OJTManagement-sub000/core"
	"github.com/Evenson-7/OJTManagement-sub000/core/evaluation"
	"github.com/Evenson-7/OJTManagement-sub000/core/user"
)

var (
	errUsrNotFoundInCtx = errors.New("user object not found in echo.Context")
	errNoPermsToSetRole = "not enough rights to set this role"
	errOtherDepartment  = "you can only manage users of your department"
)

const objectKey = "object"

type userApi struct {
	svc        *user.Service
	evals      *evaluation.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerUserAPI(
	g *echo.Group,
	svc *user.Service,
	evals *evaluation.Service,
	validate *validator.Validate,
	translator ut.Translator,
) {
	api := userApi{
		svc:        svc,
		evals:      evals,
		validate:   validate,
		translator: translator,
	}

	ug := g.Group("/users")
	ug.GET("/me", api.me)
	ug.GET("/roles", api.queryRoles)
	ug.GET("/interns", api.roster)
	ug.GET("", api.query, managerMiddleware())
	ug.POST("", api.create, managerMiddleware())
	ug.DELETE("", api.destroyMultiple, roleMiddleware(user.RoleAdmin))

	// detail endpoints
	dg := ug.Group("/:id", visibleUserMiddleware(svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.PUT("/supervisor", api.assignSupervisor, managerMiddleware())
	dg.POST("/finalize", api.finalize, managerMiddleware())
	dg.DELETE("", api.destroy, roleMiddleware(user.RoleAdmin))
}

// Handlers

func (api *userApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) create(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if ctxUsr.IsCoordinator() {
		data.Department = ctxUsr.Department
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.translator, api.svc); err != nil {
		return err
	}

	// ctxUser cannot set a role > their own role
	if user.RolePriority(data.Role) > user.RolePriority(ctxUsr.Role) {
		return core.NewValidationError(nil, core.FieldError{Field: "role", Error: errNoPermsToSetRole})
	}

	usr, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) query(ctx echo.Context) error {
	filter := new(user.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []user.User{})
	}
	filter.Clean()
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if ctxUsr.IsCoordinator() {
		filter.Department = ctxUsr.Department
	}
	ordering := new(Ordering)
	ordering.Bind(ctx, user.OrderingFields...)

	users, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

// roster lists the interns visible to the current user.
func (api *userApi) roster(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	interns, err := api.svc.Roster(ctx.Request().Context(), ctxUsr)
	if err != nil {
		return errors.Wrap(err, "loading roster")
	}
	return ctx.JSON(http.StatusOK, interns)
}

func (api *userApi) retrieve(ctx echo.Context) error {
	usr, ok := ctx.Get(objectKey).(user.User)
	if !ok {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) update(ctx echo.Context) error {
	usr, ok := ctx.Get(objectKey).(user.User)
	if !ok {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}

	var data user.UpdateUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}

	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !ctxUsr.CanManage(usr) {
		// users may only rename themselves
		if usr.ID != ctxUsr.ID || data.Email != "" || data.Role != "" || data.Department != nil ||
			data.RequiredHours != nil || data.InternshipStatus != "" || data.IsActive != nil {
			return errHttpForbidden
		}
	}

	if err := data.Validate(ctx.Request().Context(), api.validate, api.translator, usr, api.svc); err != nil {
		return err
	}

	// ctxUser cannot set a role > their own role
	if data.Role != "" && user.RolePriority(data.Role) > user.RolePriority(ctxUsr.Role) {
		return core.NewValidationError(nil, core.FieldError{Field: "role", Error: errNoPermsToSetRole})
	}
	if ctxUsr.IsCoordinator() && data.Department != nil && !strings.EqualFold(*data.Department, ctxUsr.Department) {
		return core.NewValidationError(nil, core.FieldError{Field: "department", Error: errOtherDepartment})
	}

	usr, err = api.svc.Update(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

type AssignSupervisorRequest struct {
	SupervisorID string `json:"supervisor_id"`
}

func (api *userApi) assignSupervisor(ctx echo.Context) error {
	usr, ok := ctx.Get(objectKey).(user.User)
	if !ok {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !ctxUsr.CanManage(usr) {
		return errHttpForbidden
	}

	var data AssignSupervisorRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignSupervisorRequest")
	}
	usr, err = api.svc.AssignSupervisor(ctx.Request().Context(), usr, data.SupervisorID)
	if err != nil {
		return errors.Wrap(err, "assigning supervisor")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) finalize(ctx echo.Context) error {
	usr, ok := ctx.Get(objectKey).(user.User)
	if !ok {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data user.FinalGrade
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to FinalGrade")
	}
	if err := api.validate.Struct(data); err != nil {
		return core.TranslateValidationErrors(err, api.translator)
	}

	usr, err = api.evals.Finalize(ctx.Request().Context(), ctxUsr, usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "finalizing internship")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) destroy(ctx echo.Context) error {
	usr, ok := ctx.Get(objectKey).(user.User)
	if !ok {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}

	// ctxUser cannot delete themselves
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if usr.ID == ctxUsr.ID {
		return errHttpForbidden
	}

	if err := api.svc.Delete(ctx.Request().Context(), usr.ID); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *userApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}

	// ctxUser cannot delete themselves
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	sort.Strings(query.IDs)
	if i := sort.SearchStrings(query.IDs, ctxUsr.ID); i < len(query.IDs) {
		if match := query.IDs[i]; ctxUsr.ID == match {
			return errHttpForbidden
		}
	}

	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *userApi) queryRoles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, user.Roles)
}

// visibleUserMiddleware loads the ":id" user into the context, if the current user may see them.
func visibleUserMiddleware(svc *user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ctxUsr, err := getContextUser(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}

			usr, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == user.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding user by ID")
			}
			if ctxUsr.CanView(usr) || ctxUsr.CanManage(usr) {
				ctx.Set(objectKey, usr)
				return next(ctx)
			}
			return errHttpNotFound
		}
	}
}

type DestroyMultipleRequest struct {
	IDs []string `query:"id"`
}
