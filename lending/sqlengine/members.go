package sqlengine

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/sqlengine/internal/adapters"
)

// MemberRepository is a lending.MemberRepository backed by a Store.
type MemberRepository struct {
	store *Store
}

// Save inserts a new member or updates an existing one if its Version still matches.
func (r *MemberRepository) Save(ctx context.Context, member *lending.Member) error {
	var ds interface {
		ToSQL() (string, []any, error)
	}

	if member.Version == 0 {
		ds = r.store.builder.Insert(tableMembers).
			Rows(goqu.Record{
				colMemberID:           member.ID,
				colName:               member.Name,
				colEmail:              member.Email,
				colBorrowedBooksCount: member.BorrowedBooksCount,
				colMaxBorrowLimit:     member.MaxBorrowLimit,
				colVersion:            1,
			}).
			OnConflict(goqu.DoNothing())
	} else {
		ds = r.store.builder.Update(tableMembers).
			Set(goqu.Record{
				colName:               member.Name,
				colEmail:              member.Email,
				colBorrowedBooksCount: member.BorrowedBooksCount,
				colMaxBorrowLimit:     member.MaxBorrowLimit,
				colVersion:            member.Version + 1,
			}).
			Where(goqu.C(colMemberID).Eq(member.ID), goqu.C(colVersion).Eq(member.Version))
	}

	sqlQuery, err := r.store.toSQL(ctx, "save member", ds)
	if err != nil {
		return err
	}

	if err = r.store.execVersioned(ctx, "save member", sqlQuery); err != nil {
		return err
	}

	member.Version++

	return nil
}

// FindByID returns the member with the given ID.
func (r *MemberRepository) FindByID(ctx context.Context, memberID lending.MemberIDString) (lending.Member, bool, error) {
	members, err := r.find(ctx, "find member by id", goqu.C(colMemberID).Eq(memberID))
	if err != nil || len(members) == 0 {
		return lending.Member{}, false, err
	}

	return members[0], true, nil
}

// FindAll returns all members ordered by ID.
func (r *MemberRepository) FindAll(ctx context.Context) ([]lending.Member, error) {
	return r.find(ctx, "find all members")
}

// ExistsByID reports whether a member with the given ID is stored.
func (r *MemberRepository) ExistsByID(ctx context.Context, memberID lending.MemberIDString) (bool, error) {
	count, err := r.store.count(ctx, "member exists", tableMembers, goqu.C(colMemberID).Eq(memberID))

	return count > 0, err
}

func (r *MemberRepository) find(ctx context.Context, action string, where ...exp.Expression) ([]lending.Member, error) {
	ds := r.store.builder.
		From(tableMembers).
		Select(colMemberID, colName, colEmail, colBorrowedBooksCount, colMaxBorrowLimit, colVersion).
		Where(where...).
		Order(goqu.C(colMemberID).Asc())

	sqlQuery, err := r.store.toSQL(ctx, action, ds)
	if err != nil {
		return nil, err
	}

	members := make([]lending.Member, 0)
	err = r.store.query(ctx, action, sqlQuery, func(rows adapters.DBRows) error {
		var member lending.Member
		var borrowed, limit, version int64

		if scanErr := rows.Scan(
			&member.ID, &member.Name, &member.Email, &borrowed, &limit, &version,
		); scanErr != nil {
			return scanErr
		}

		member.BorrowedBooksCount = int(borrowed)
		member.MaxBorrowLimit = int(limit)
		member.Version = uint(version)
		members = append(members, member)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return members, nil
}
