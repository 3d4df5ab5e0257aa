package mysql

import (
	"database/sql"
	"strings"

	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/model"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/repository/interfaces"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/util"

	"go.uber.org/zap"
)

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) *postRepository {
	return &postRepository{db: db}
}

func (r *postRepository) CreatePost(post *model.Post) error {
	query := `INSERT INTO posts (user_id, image_url, caption, is_deleted, created_at, updated_at)
              VALUES (?, ?, ?, FALSE, NOW(), NOW())`
	result, err := r.db.Exec(query, post.UserID, post.ImageURL, post.Caption)
	if err != nil {
		util.Logger.Error("创建帖子失败", zap.Error(err))
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		util.Logger.Error("获取新帖子ID失败", zap.Error(err))
		return err
	}
	post.ID = int(id)

	util.Logger.Info("帖子创建成功", zap.Int("post_id", post.ID))
	return nil
}

// GetPostByID 获取单个帖子，软删除的帖子对所有人（包括作者）不可见
func (r *postRepository) GetPostByID(id int) (*model.Post, error) {
	query := `
        SELECT p.id, p.user_id, p.image_url, p.caption, p.created_at, p.updated_at,
               u.username, u.avatar_url
        FROM posts p
        JOIN users u ON p.user_id = u.id
        WHERE p.id = ? AND p.is_deleted = FALSE`

	var post model.Post
	var user model.UserBasic
	err := r.db.QueryRow(query, id).Scan(
		&post.ID, &post.UserID, &post.ImageURL, &post.Caption,
		&post.CreatedAt, &post.UpdatedAt,
		&user.Username, &user.AvatarURL,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	user.ID = post.UserID
	post.User = &user
	return &post, nil
}

func (r *postRepository) UpdatePost(post *model.Post) error {
	query := `UPDATE posts SET caption = ?, image_url = ?, updated_at = NOW() WHERE id = ?`
	_, err := r.db.Exec(query, post.Caption, post.ImageURL, post.ID)
	if err != nil {
		util.Logger.Error("更新帖子失败", zap.Error(err), zap.Int("post_id", post.ID))
		return err
	}
	return nil
}

// SoftDeletePost 只打标记，点赞和评论的行保留
func (r *postRepository) SoftDeletePost(id int) error {
	query := `UPDATE posts SET is_deleted = TRUE, updated_at = NOW() WHERE id = ?`
	_, err := r.db.Exec(query, id)
	if err != nil {
		util.Logger.Error("软删除帖子失败", zap.Error(err), zap.Int("post_id", id))
		return err
	}

	util.Logger.Info("帖子软删除成功", zap.Int("post_id", id))
	return nil
}

// 列表查询统一按 created_at DESC, id DESC 排序。
// 时间戳相同的帖子用ID做次级排序，保证并发插入下分页顺序稳定。
const postListSelect = `
    SELECT p.id, p.user_id, p.image_url, p.caption, p.created_at, p.updated_at,
           u.username, u.avatar_url
    FROM posts p
    JOIN users u ON p.user_id = u.id`

func (r *postRepository) scanPosts(rows *sql.Rows) ([]*model.Post, error) {
	defer rows.Close()

	var posts []*model.Post
	for rows.Next() {
		var post model.Post
		var user model.UserBasic
		err := rows.Scan(
			&post.ID, &post.UserID, &post.ImageURL, &post.Caption,
			&post.CreatedAt, &post.UpdatedAt,
			&user.Username, &user.AvatarURL,
		)
		if err != nil {
			return nil, err
		}
		user.ID = post.UserID
		post.User = &user
		posts = append(posts, &post)
	}

	return posts, rows.Err()
}

func (r *postRepository) ListGlobal(filter interfaces.PostFilter, limit, offset int) ([]*model.Post, error) {
	query := postListSelect + ` WHERE p.is_deleted = FALSE`
	args := []interface{}{}

	if filter.AuthorID > 0 {
		query += ` AND p.user_id = ?`
		args = append(args, filter.AuthorID)
	}
	if filter.Search != "" {
		query += ` AND p.caption LIKE ?`
		args = append(args, "%"+filter.Search+"%")
	}

	query += ` ORDER BY p.created_at DESC, p.id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		util.Logger.Error("查询全局帖子列表失败", zap.Error(err))
		return nil, err
	}
	return r.scanPosts(rows)
}

func (r *postRepository) CountGlobal(filter interfaces.PostFilter) (int, error) {
	query := `SELECT COUNT(*) FROM posts WHERE is_deleted = FALSE`
	args := []interface{}{}

	if filter.AuthorID > 0 {
		query += ` AND user_id = ?`
		args = append(args, filter.AuthorID)
	}
	if filter.Search != "" {
		query += ` AND caption LIKE ?`
		args = append(args, "%"+filter.Search+"%")
	}

	var total int
	err := r.db.QueryRow(query, args...).Scan(&total)
	return total, err
}

// ListByFollowed 获取关注范围的帖子。自关注被禁止，
// 所以用户自己的帖子天然不会出现在这里。
func (r *postRepository) ListByFollowed(followerID, limit, offset int) ([]*model.Post, error) {
	query := postListSelect + `
        JOIN follows f ON p.user_id = f.followed_id
        WHERE f.follower_id = ? AND p.is_deleted = FALSE
        ORDER BY p.created_at DESC, p.id DESC
        LIMIT ? OFFSET ?`

	rows, err := r.db.Query(query, followerID, limit, offset)
	if err != nil {
		util.Logger.Error("查询关注帖子列表失败", zap.Error(err), zap.Int("follower_id", followerID))
		return nil, err
	}
	return r.scanPosts(rows)
}

func (r *postRepository) CountByFollowed(followerID int) (int, error) {
	query := `
        SELECT COUNT(*)
        FROM posts p
        JOIN follows f ON p.user_id = f.followed_id
        WHERE f.follower_id = ? AND p.is_deleted = FALSE`

	var total int
	err := r.db.QueryRow(query, followerID).Scan(&total)
	return total, err
}

func (r *postRepository) ListByAuthor(authorID, limit, offset int) ([]*model.Post, error) {
	query := postListSelect + `
        WHERE p.user_id = ? AND p.is_deleted = FALSE
        ORDER BY p.created_at DESC, p.id DESC
        LIMIT ? OFFSET ?`

	rows, err := r.db.Query(query, authorID, limit, offset)
	if err != nil {
		util.Logger.Error("查询用户帖子列表失败", zap.Error(err), zap.Int("author_id", authorID))
		return nil, err
	}
	return r.scanPosts(rows)
}

func (r *postRepository) CountByAuthor(authorID int) (int, error) {
	var total int
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM posts WHERE user_id = ? AND is_deleted = FALSE`,
		authorID,
	).Scan(&total)
	return total, err
}

// inPlaceholders 生成 IN 子句的占位符和参数
func inPlaceholders(ids []int) (string, []interface{}) {
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return strings.Join(placeholders, ","), args
}

// GetLikeCounts 一次查询批量取回一组帖子的点赞数
func (r *postRepository) GetLikeCounts(postIDs []int) (map[int]int, error) {
	counts := make(map[int]int, len(postIDs))
	if len(postIDs) == 0 {
		return counts, nil
	}

	placeholders, args := inPlaceholders(postIDs)
	query := `SELECT post_id, COUNT(*) FROM likes WHERE post_id IN (` + placeholders + `) GROUP BY post_id`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var postID, count int
		if err := rows.Scan(&postID, &count); err != nil {
			return nil, err
		}
		counts[postID] = count
	}
	return counts, rows.Err()
}

// GetCommentCounts 一次查询批量取回一组帖子的评论数
func (r *postRepository) GetCommentCounts(postIDs []int) (map[int]int, error) {
	counts := make(map[int]int, len(postIDs))
	if len(postIDs) == 0 {
		return counts, nil
	}

	placeholders, args := inPlaceholders(postIDs)
	query := `SELECT post_id, COUNT(*) FROM comments WHERE post_id IN (` + placeholders + `) GROUP BY post_id`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var postID, count int
		if err := rows.Scan(&postID, &count); err != nil {
			return nil, err
		}
		counts[postID] = count
	}
	return counts, rows.Err()
}

// GetLikedSet 返回当前用户在这组帖子里点过赞的子集
func (r *postRepository) GetLikedSet(userID int, postIDs []int) (map[int]bool, error) {
	liked := make(map[int]bool, len(postIDs))
	if len(postIDs) == 0 {
		return liked, nil
	}

	placeholders, args := inPlaceholders(postIDs)
	query := `SELECT post_id FROM likes WHERE user_id = ? AND post_id IN (` + placeholders + `)`
	args = append([]interface{}{userID}, args...)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var postID int
		if err := rows.Scan(&postID); err != nil {
			return nil, err
		}
		liked[postID] = true
	}
	return liked, rows.Err()
}

func (r *postRepository) InsertLike(userID, postID int) error {
	query := `INSERT INTO likes (user_id, post_id, created_at) VALUES (?, ?, NOW())`
	_, err := r.db.Exec(query, userID, postID)
	if err != nil {
		if strings.Contains(err.Error(), "Duplicate entry") {
			return interfaces.ErrDuplicateEntry
		}
		util.Logger.Error("创建点赞失败", zap.Error(err))
		return err
	}
	return nil
}

func (r *postRepository) DeleteLike(userID, postID int) (bool, error) {
	result, err := r.db.Exec(`DELETE FROM likes WHERE user_id = ? AND post_id = ?`, userID, postID)
	if err != nil {
		util.Logger.Error("删除点赞失败", zap.Error(err))
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *postRepository) HasLiked(userID, postID int) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`
        SELECT EXISTS(
            SELECT 1 FROM likes
            WHERE user_id = ? AND post_id = ?
        )`, userID, postID).Scan(&exists)
	return exists, err
}

func (r *postRepository) GetLikeCount(postID int) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM likes WHERE post_id = ?`, postID).Scan(&count)
	return count, err
}

func (r *postRepository) CreateComment(comment *model.Comment) error {
	query := `INSERT INTO comments (user_id, post_id, content, created_at) VALUES (?, ?, ?, NOW())`
	result, err := r.db.Exec(query, comment.UserID, comment.PostID, comment.Content)
	if err != nil {
		util.Logger.Error("创建评论失败", zap.Error(err), zap.Int("post_id", comment.PostID))
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		util.Logger.Error("获取新评论ID失败", zap.Error(err))
		return err
	}
	comment.ID = int(id)

	util.Logger.Info("评论创建成功", zap.Int("comment_id", comment.ID))
	return nil
}

func (r *postRepository) GetCommentByID(id int) (*model.Comment, error) {
	query := `SELECT id, user_id, post_id, content, created_at FROM comments WHERE id = ?`

	var comment model.Comment
	err := r.db.QueryRow(query, id).Scan(
		&comment.ID, &comment.UserID, &comment.PostID, &comment.Content, &comment.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &comment, nil
}

const commentListSelect = `
    SELECT c.id, c.user_id, c.post_id, c.content, c.created_at,
           u.username, u.avatar_url
    FROM comments c
    JOIN users u ON c.user_id = u.id`

func (r *postRepository) scanComments(rows *sql.Rows) ([]*model.Comment, error) {
	defer rows.Close()

	var comments []*model.Comment
	for rows.Next() {
		var comment model.Comment
		var user model.UserBasic
		err := rows.Scan(
			&comment.ID, &comment.UserID, &comment.PostID, &comment.Content, &comment.CreatedAt,
			&user.Username, &user.AvatarURL,
		)
		if err != nil {
			return nil, err
		}
		user.ID = comment.UserID
		comment.User = &user
		comments = append(comments, &comment)
	}

	return comments, rows.Err()
}

func (r *postRepository) ListComments(postID, limit, offset int) ([]*model.Comment, error) {
	query := commentListSelect + `
        WHERE c.post_id = ?
        ORDER BY c.created_at ASC, c.id ASC
        LIMIT ? OFFSET ?`

	rows, err := r.db.Query(query, postID, limit, offset)
	if err != nil {
		util.Logger.Error("查询评论列表失败", zap.Error(err), zap.Int("post_id", postID))
		return nil, err
	}
	return r.scanComments(rows)
}

func (r *postRepository) CountComments(postID int) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM comments WHERE post_id = ?`, postID).Scan(&count)
	return count, err
}

// GetCommentsForPost 取回单帖详情里内嵌的完整评论列表
func (r *postRepository) GetCommentsForPost(postID int) ([]*model.Comment, error) {
	query := commentListSelect + `
        WHERE c.post_id = ?
        ORDER BY c.created_at ASC, c.id ASC`

	rows, err := r.db.Query(query, postID)
	if err != nil {
		util.Logger.Error("查询帖子评论失败", zap.Error(err), zap.Int("post_id", postID))
		return nil, err
	}
	return r.scanComments(rows)
}

func (r *postRepository) DeleteComment(id int) error {
	_, err := r.db.Exec(`DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		util.Logger.Error("删除评论失败", zap.Error(err), zap.Int("comment_id", id))
		return err
	}

	util.Logger.Info("评论删除成功", zap.Int("comment_id", id))
	return nil
}
