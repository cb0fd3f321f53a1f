package handler

import (
	"errors"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
)

// getUserID extracts the authenticated user's ID from echo.Context.
// JWTAuth stores the raw "sub" claim, whose concrete type depends on
// how the JWT library decoded it, so a type switch is required.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// lockConflict reports whether err is an InnoDB deadlock (1213) or
// lock wait timeout (1205). When two serializable booking transactions
// race for the same free seat both pass the FOR UPDATE scan on gap
// locks; the insert then deadlocks and InnoDB rolls one back with
// 1213. The losing request is a seat conflict, not a server fault.
func lockConflict(err error) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	return me.Number == 1213 || me.Number == 1205
}

// duplicateKey reports whether err is a MySQL duplicate-entry error
// (1062), raised when a concurrent insert loses a unique-key race.
func duplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

// isAdmin reports whether the authenticated request carries the admin
// role claim.
func isAdmin(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == "admin"
}
